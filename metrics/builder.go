package metrics

import (
	"strings"
	"time"
)

type label struct {
	name  string
	value string
}

// identity accumulates a metric name and its labels. It is a value type:
// every modification returns a copy, so builders can be shared safely.
type identity struct {
	name    string
	hasName bool
	labels  []label
}

func (id identity) withName(name string) identity {
	id.name = name
	id.hasName = true
	return id
}

// withLabel appends the label, or replaces the value in place when the
// label name is already present.
func (id identity) withLabel(name, value string) identity {

	labels := make([]label, len(id.labels), len(id.labels)+1)
	copy(labels, id.labels)

	for i := range labels {
		if labels[i].name == name {
			labels[i].value = value
			id.labels = labels
			return id
		}
	}
	id.labels = append(labels, label{name: name, value: value})
	return id
}

// compose renders name{k1="v1", k2="v2"}, labels in insertion order.
func (id identity) compose() (string, error) {

	if !id.hasName {
		return "", ErrMissingName
	}
	if len(id.labels) == 0 {
		return id.name, nil
	}

	var sb strings.Builder
	sb.WriteString(id.name)
	sb.WriteByte('{')
	for i, l := range id.labels {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(l.name)
		sb.WriteString(`="`)
		sb.WriteString(l.value)
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String(), nil
}

type CounterBuilder struct {
	registry *Registry
	id       identity
}

// CreateCounter starts composing a counter identity.
func (r *Registry) CreateCounter() CounterBuilder {
	return CounterBuilder{registry: r}
}

func (b CounterBuilder) Name(name string) CounterBuilder {
	b.id = b.id.withName(name)
	return b
}

func (b CounterBuilder) Label(name, value string) CounterBuilder {
	b.id = b.id.withLabel(name, value)
	return b
}

// Register validates the composed identity and returns the counter registered under it.
func (b CounterBuilder) Register() (*Counter, error) {

	name, err := b.id.compose()
	if err != nil {
		return nil, err
	}
	return b.registry.GetOrCreateCounter(name)
}

type GaugeBuilder struct {
	registry *Registry
	id       identity
	supplier func() float64
}

func (r *Registry) CreateGauge() GaugeBuilder {
	return GaugeBuilder{registry: r}
}

func (b GaugeBuilder) Name(name string) GaugeBuilder {
	b.id = b.id.withName(name)
	return b
}

func (b GaugeBuilder) Label(name, value string) GaugeBuilder {
	b.id = b.id.withLabel(name, value)
	return b
}

func (b GaugeBuilder) Supplier(supplier func() float64) GaugeBuilder {
	b.supplier = supplier
	return b
}

func (b GaugeBuilder) Register() (*Gauge, error) {

	name, err := b.id.compose()
	if err != nil {
		return nil, err
	}
	return b.registry.GetOrCreateGauge(name, b.supplier)
}

type HistogramBuilder struct {
	registry *Registry
	id       identity
}

func (r *Registry) CreateHistogram() HistogramBuilder {
	return HistogramBuilder{registry: r}
}

func (b HistogramBuilder) Name(name string) HistogramBuilder {
	b.id = b.id.withName(name)
	return b
}

func (b HistogramBuilder) Label(name, value string) HistogramBuilder {
	b.id = b.id.withLabel(name, value)
	return b
}

func (b HistogramBuilder) Register() (*Histogram, error) {

	name, err := b.id.compose()
	if err != nil {
		return nil, err
	}
	return b.registry.GetOrCreateHistogram(name)
}

type SummaryBuilder struct {
	registry  *Registry
	id        identity
	quantiles []float64
	windows   int
	window    time.Duration
}

// CreateSummary starts composing a summary with the default configuration.
func (r *Registry) CreateSummary() SummaryBuilder {
	return SummaryBuilder{
		registry:  r,
		quantiles: DefaultQuantiles,
		windows:   DefaultWindows,
		window:    DefaultWindow,
	}
}

func (b SummaryBuilder) Name(name string) SummaryBuilder {
	b.id = b.id.withName(name)
	return b
}

func (b SummaryBuilder) Label(name, value string) SummaryBuilder {
	b.id = b.id.withLabel(name, value)
	return b
}

func (b SummaryBuilder) Quantiles(quantiles ...float64) SummaryBuilder {
	b.quantiles = append([]float64(nil), quantiles...)
	return b
}

// Window sets the rolling window duration and the number of sub-windows it is split into.
func (b SummaryBuilder) Window(window time.Duration, windows int) SummaryBuilder {
	b.window = window
	b.windows = windows
	return b
}

func (b SummaryBuilder) Register() (*Summary, error) {

	name, err := b.id.compose()
	if err != nil {
		return nil, err
	}
	return b.registry.GetOrCreateSummaryExt(name, b.quantiles, b.windows, b.window)
}
