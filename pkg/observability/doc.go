/*
Package observability turns conversation lifecycle events into Prometheus
metrics and structured log lines.

Both are exposed as domain.LifecycleHooks so they can be merged and handed to
any conversation:

	hooks := observability.NewMetrics(prometheus.DefaultRegisterer).Hooks().
		Merge(observability.LoggingHooks(logger))
*/
package observability
