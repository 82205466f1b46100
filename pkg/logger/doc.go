// Package logger builds *slog.Logger instances for onboardkit binaries and
// provides attribute helpers so that log keys stay consistent across packages.
//
// New applies functional options on top of production defaults (JSON, info
// level, stdout). Environment presets switch to human-readable text output for
// local work:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "onboardd"),
//	    logger.WithContextValue("flow_id", flowIDKey{}),
//	)
//	log.InfoContext(ctx, "otp sent", logger.Email(email), logger.Component("otpgate"))
//
// Context extractors run on every record, which lets request-scoped values
// such as a flow id appear without threading them through every call.
//
// Helpers such as Error return an empty slog.Attr for nil input, so
//
//	log.Warn("location fetch failed", logger.Error(err))
//
// never needs a nil check.
package logger
