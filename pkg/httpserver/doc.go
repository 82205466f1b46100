// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run binds the listener, serves until the context is cancelled or the
// process receives SIGINT/SIGTERM, then calls http.Server.Shutdown with the
// configured deadline and runs the stop hooks:
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(ctx context.Context) error { return rdb.Close() }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// HealthCheckHandler serves liveness and readiness probes as JSON.
package httpserver
