package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/devopsext/vmclient/metrics"
	"gopkg.in/yaml.v3"
)

// WorkloadMetric describes one metric the serve command registers and feeds.
type WorkloadMetric struct {
	Kind      string          `yaml:"kind"`
	Name      string          `yaml:"name"`
	Labels    []WorkloadLabel `yaml:"labels"`
	Quantiles []float64       `yaml:"quantiles"`
	Window    time.Duration   `yaml:"window"`
	Windows   int             `yaml:"windows"`
	Min       float64         `yaml:"min"`
	Max       float64         `yaml:"max"`
}

// WorkloadLabel entries are registered in file order; label order is part of the identity.
type WorkloadLabel struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type Workload struct {
	Interval time.Duration    `yaml:"interval"`
	Metrics  []WorkloadMetric `yaml:"metrics"`
}

var defaultWorkload = Workload{
	Interval: time.Second,
	Metrics: []WorkloadMetric{
		{Kind: "counter", Name: "vmclient_demo_calls_total"},
		{Kind: "histogram", Name: "vmclient_demo_duration_seconds", Min: 0.001, Max: 2},
		{Kind: "summary", Name: "vmclient_demo_response_size_bytes", Min: 100, Max: 10000},
	},
}

func loadWorkload(path string) (Workload, error) {

	if path == "" {
		return defaultWorkload, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, err
	}

	workload := Workload{Interval: defaultWorkload.Interval}
	if err := yaml.Unmarshal(data, &workload); err != nil {
		return Workload{}, fmt.Errorf("unable to parse workload %s: %w", path, err)
	}
	if workload.Interval <= 0 {
		return Workload{}, fmt.Errorf("invalid workload interval %s", workload.Interval)
	}
	return workload, nil
}

// feeder updates one registered metric with a random sample.
type feeder func(r *rand.Rand)

func sample(r *rand.Rand, min, max float64) float64 {

	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}

func (wm WorkloadMetric) register(registry *metrics.Registry, instance string) (feeder, error) {

	switch wm.Kind {
	case "counter":
		b := registry.CreateCounter().Name(wm.Name)
		for _, l := range wm.Labels {
			b = b.Label(l.Name, l.Value)
		}
		c, err := b.Label("instance", instance).Register()
		if err != nil {
			return nil, err
		}
		return func(r *rand.Rand) { c.Inc() }, nil

	case "gauge":
		start := time.Now()
		b := registry.CreateGauge().Name(wm.Name).Supplier(func() float64 {
			return time.Since(start).Seconds()
		})
		for _, l := range wm.Labels {
			b = b.Label(l.Name, l.Value)
		}
		_, err := b.Label("instance", instance).Register()
		if err != nil {
			return nil, err
		}
		return func(r *rand.Rand) {}, nil

	case "histogram":
		b := registry.CreateHistogram().Name(wm.Name)
		for _, l := range wm.Labels {
			b = b.Label(l.Name, l.Value)
		}
		h, err := b.Label("instance", instance).Register()
		if err != nil {
			return nil, err
		}
		return func(r *rand.Rand) { h.Update(sample(r, wm.Min, wm.Max)) }, nil

	case "summary":
		b := registry.CreateSummary().Name(wm.Name)
		for _, l := range wm.Labels {
			b = b.Label(l.Name, l.Value)
		}
		if len(wm.Quantiles) > 0 {
			b = b.Quantiles(wm.Quantiles...)
		}
		if wm.Window > 0 || wm.Windows > 0 {
			window, windows := wm.Window, wm.Windows
			if window <= 0 {
				window = metrics.DefaultWindow
			}
			if windows <= 0 {
				windows = metrics.DefaultWindows
			}
			b = b.Window(window, windows)
		}
		s, err := b.Label("instance", instance).Register()
		if err != nil {
			return nil, err
		}
		return func(r *rand.Rand) { s.Update(sample(r, wm.Min, wm.Max)) }, nil
	}

	return nil, fmt.Errorf("unknown metric kind %q for %s", wm.Kind, wm.Name)
}

// Register registers every workload metric and returns their feeders.
func (w Workload) Register(registry *metrics.Registry, instance string) ([]feeder, error) {

	feeders := make([]feeder, 0, len(w.Metrics))
	for _, wm := range w.Metrics {
		f, err := wm.register(registry, instance)
		if err != nil {
			return nil, err
		}
		feeders = append(feeders, f)
	}
	return feeders, nil
}
