/*
Package observability turns wizard lifecycle hooks into logs and Prometheus metrics.

Hooks run synchronously while a wizard is locked, so everything here is a
cheap counter update or a single log line. Use MergeHooks to attach both:

	metrics := observability.NewMetrics("stepwise")
	hooks := observability.MergeHooks(metrics.Hooks(), observability.LoggingHooks(logger))
	engine, _ := stepwise.New(stepwise.WithLifecycleHooks(hooks))
*/
package observability
