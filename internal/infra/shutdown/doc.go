// Package shutdown coordinates process termination.
//
// WithSignals derives a context that is cancelled on SIGINT or SIGTERM, so
// Ctrl-C aborts in-flight requests. Handler runs cleanup hooks (closing the
// session store, writing the metrics textfile, stopping the devserver) once,
// in reverse registration order, under a timeout.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return kv.Close() })
//	defer h.Shutdown()
package shutdown
