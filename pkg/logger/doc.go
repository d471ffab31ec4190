// Package logger builds the application's *slog.Logger.
//
// New applies Option functions on top of production defaults (JSON, info
// level, stdout). FromConfig maps the LOG_* environment settings onto those
// options, so commands only need:
//
//	log := logger.FromConfig(cfg, "trialbill",
//		logger.WithContextExtractors(requestid.LogExtractor, session.LogExtractor),
//	)
//
// Every logger is wrapped in a handler that runs the registered
// ContextExtractor callbacks on each record, which is how request and user
// IDs reach log lines without being passed around explicitly.
//
// Attribute helpers (Error, UserID, Component, ...) keep key names uniform.
package logger
