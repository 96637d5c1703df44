// Package observability provides structured logging for the ACL
// authorizer.
//
// The Logger interface wraps zap and is the logging surface used by
// every other package in the module:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("request authorized",
//	    observability.String("principal", "alice"),
//	    observability.Bool("allowed", true),
//	)
//
// Components accept a Logger via functional options and default to
// NopLogger(), so tests run silent unless a logger is injected.
package observability
