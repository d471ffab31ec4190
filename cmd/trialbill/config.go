package main

import (
	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/httpserver"
	"github.com/dmitrymomot/trialbill/pkg/logger"
	"github.com/dmitrymomot/trialbill/pkg/mongo"
	"github.com/dmitrymomot/trialbill/pkg/notify"
	"github.com/dmitrymomot/trialbill/pkg/ratelimiter"
	"github.com/dmitrymomot/trialbill/pkg/redis"
	"github.com/dmitrymomot/trialbill/pkg/session"
	"github.com/dmitrymomot/trialbill/pkg/subscription"
)

type appConfig struct {
	Logger       logger.Config
	HTTP         httpserver.Config
	Mongo        mongo.Config
	Redis        redis.Config
	Session      session.Config
	Notify       notify.Config
	Google       account.GoogleConfig
	Subscription subscription.Config
	Paddle       subscription.PaddleConfig
	Breaker      subscription.BreakerConfig
	RateLimit    ratelimiter.Config

	// SignInRedirectURL is where browsers land after Google sign-in.
	SignInRedirectURL string `env:"SIGN_IN_REDIRECT_URL"`
}

type configLoader func() (appConfig, error)
