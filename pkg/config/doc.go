// Package config parses environment variables into typed structs.
//
// Each component owns its settings as a struct with `env` tags
// (github.com/caarlos0/env/v11); commands compose them and call Load once at
// startup. The first call also loads `.env` files with
// github.com/joho/godotenv, without overriding variables that are already set.
//
//	var cfg struct {
//		Mongo mongo.Config
//		HTTP  httpserver.Config
//	}
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
