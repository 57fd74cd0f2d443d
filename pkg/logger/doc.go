// Package logger builds slog loggers for the service.
//
// New returns a *slog.Logger whose handler is wrapped in a decorator that
// pulls request-scoped values (request id, environment) out of the context at
// log time. Attribute helpers such as UserID, SessionID and Provider keep the
// keys consistent across packages.
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "authd"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "user signed in", logger.UserID(id))
package logger
