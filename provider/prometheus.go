package provider

import (
	"bytes"
	"net/http"
	"sort"

	"github.com/devopsext/vmclient/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// PrometheusGatherer exposes a registry to client_golang as a prometheus.Gatherer.
// Every series is reported as untyped, histogram buckets keep their vmrange label.
type PrometheusGatherer struct {
	registry *metrics.Registry
}

func (pg *PrometheusGatherer) Gather() ([]*dto.MetricFamily, error) {

	var b bytes.Buffer
	if err := pg.registry.Write(&b); err != nil {
		return nil, err
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(&b)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		result = append(result, mf)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].GetName() < result[j].GetName()
	})
	return result, nil
}

func NewPrometheusGatherer(registry *metrics.Registry) *PrometheusGatherer {
	return &PrometheusGatherer{registry: registry}
}

// NewPrometheusHandler serves the registry together with the given gatherers,
// e.g. prometheus.DefaultGatherer, through promhttp.
func NewPrometheusHandler(registry *metrics.Registry, gatherers ...prometheus.Gatherer) http.Handler {

	all := prometheus.Gatherers{NewPrometheusGatherer(registry)}
	all = append(all, gatherers...)

	return promhttp.HandlerFor(all, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
