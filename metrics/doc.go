/*
Package metrics implements Prometheus-compatible metrics for applications.

Metrics live in an explicitly constructed Registry and are identified by
their full name including labels, e.g. `requests_total{path="/foo"}`.
The registry keeps at most one metric per identity, so metrics may be
obtained once and cached, or looked up on every use:

	registry := metrics.NewRegistry()

	requests, err := registry.CreateCounter().
		Name("requests_total").
		Label("path", "/foo").
		Register()
	if err != nil {
		return err
	}
	requests.Inc()

	duration, _ := registry.GetOrCreateHistogram(`request_duration_seconds{path="/foo"}`)
	duration.UpdateDuration(start)

Registry.Write renders all registered metrics in the Prometheus text
exposition format. Histograms are exposed with vmrange buckets in the
VictoriaMetrics manner; summaries expose rank-based quantiles computed over
the most recent rotation interval of a rolling time window.
*/
package metrics
