package provider

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devopsext/vmclient/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusGatherer(t *testing.T) {

	registry := metrics.NewRegistry()

	counter, err := registry.GetOrCreateCounter(`test_counter_some{one="value1"}`)
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(5)

	summary, err := registry.GetOrCreateSummary(`test_summary{one="value1"}`)
	if err != nil {
		t.Fatal(err)
	}
	summary.Update(3)

	families, err := NewPrometheusGatherer(registry).Gather()
	if err != nil {
		t.Fatal(err)
	}

	names := make([]string, 0, len(families))
	values := make(map[string]float64)
	for _, mf := range families {
		names = append(names, mf.GetName())
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetUntyped().GetValue()
		}
	}

	expected := "test_counter_some,test_summary,test_summary_count,test_summary_sum"
	if strings.Join(names, ",") != expected {
		t.Fatalf("Invalid families %v", names)
	}

	if values["test_counter_some"] != 5 {
		t.Fatalf("Invalid counter value %v", values["test_counter_some"])
	}

	if values["test_summary_count"] != 1 {
		t.Fatalf("Invalid summary count %v", values["test_summary_count"])
	}

	if len(families[1].GetMetric()) != len(metrics.DefaultQuantiles) {
		t.Fatalf("Invalid quantiles count %d", len(families[1].GetMetric()))
	}
}

func TestPrometheusHandler(t *testing.T) {

	registry := metrics.NewRegistry()

	counter, err := registry.CreateCounter().Name("test_counter_some").Label("one", "value1").Register()
	if err != nil {
		t.Fatal(err)
	}
	counter.Inc()

	native := prometheus.NewRegistry()
	nativeCounter := prometheus.NewCounter(prometheus.CounterOpts{Name: "native_counter", Help: "Native counter"})
	native.MustRegister(nativeCounter)
	nativeCounter.Add(2)

	rec := httptest.NewRecorder()
	NewPrometheusHandler(registry, native).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("None 200 response: %d", rec.Code)
	}

	body := rec.Body.String()
	for _, line := range []string{`test_counter_some{one="value1"} 1`, "native_counter 2"} {
		if !strings.Contains(body, line) {
			t.Fatalf("No line %q in output:\n%s", line, body)
		}
	}
}
