package metrics

import (
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/devopsext/vmclient/common"
	"github.com/ygrebnov/errorc"
	"golang.org/x/sync/singleflight"
)

// Registry holds every metric created through it, keyed by identity.
// At most one metric instance exists per identity.
type Registry struct {
	metrics    sync.Map
	creations  singleflight.Group
	size       atomic.Int64
	serializer atomic.Pointer[serializerHolder]
	logger     common.Logger
}

type serializerHolder struct {
	Serializer
}

type RegistryOption func(*Registry)

// WithLogger makes the registry log metric creation and serialization failures.
func WithLogger(logger common.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithSerializer(s Serializer) RegistryOption {
	return func(r *Registry) {
		r.SetSerializer(s)
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {

	r := &Registry{}
	r.SetSerializer(NewPrometheusSerializer())
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Size returns the number of distinct identities.
func (r *Registry) Size() int {
	return int(r.size.Load())
}

// SetSerializer replaces the serializer used by Write. Nil restores the Prometheus one.
func (r *Registry) SetSerializer(s Serializer) {

	if s == nil {
		s = NewPrometheusSerializer()
	}
	r.serializer.Store(&serializerHolder{s})
}

func (r *Registry) GetOrCreateCounter(name string) (*Counter, error) {
	return getOrCreate(r, name, func(ident string) (*Counter, error) {
		return newCounter(ident), nil
	})
}

// GetOrCreateGauge returns the gauge for name, creating it with supplier if absent.
// The supplier of an existing gauge is kept.
func (r *Registry) GetOrCreateGauge(name string, supplier func() float64) (*Gauge, error) {
	return getOrCreate(r, name, func(ident string) (*Gauge, error) {
		return newGauge(ident, supplier)
	})
}

func (r *Registry) GetOrCreateHistogram(name string) (*Histogram, error) {
	return getOrCreate(r, name, func(ident string) (*Histogram, error) {
		return newHistogram(ident), nil
	})
}

// GetOrCreateSummary returns the summary for name, creating it with
// DefaultQuantiles, DefaultWindows and DefaultWindow if absent.
func (r *Registry) GetOrCreateSummary(name string) (*Summary, error) {
	return r.GetOrCreateSummaryExt(name, DefaultQuantiles, DefaultWindows, DefaultWindow)
}

// GetOrCreateSummaryExt is like GetOrCreateSummary with explicit configuration.
// The configuration of an existing summary is kept.
func (r *Registry) GetOrCreateSummaryExt(name string, quantiles []float64, windows int, window time.Duration) (*Summary, error) {
	return getOrCreate(r, name, func(ident string) (*Summary, error) {
		return newSummary(ident, quantiles, windows, window)
	})
}

func getOrCreate[T Metric](r *Registry, name string, create func(string) (T, error)) (T, error) {

	var zero T

	if m, ok := r.metrics.Load(name); ok {
		return cast[T](m.(Metric))
	}

	if err := Validate(name); err != nil {
		return zero, err
	}

	m, err, shared := r.creations.Do(name, func() (interface{}, error) {

		if m, ok := r.metrics.Load(name); ok {
			return m, nil
		}
		return store(r, name, create)
	})
	if err != nil && shared {
		// the error may belong to another caller's configuration
		m, err = store(r, name, create)
	}
	if err != nil {
		return zero, err
	}
	return cast[T](m.(Metric))
}

// store creates the metric and publishes it unless another caller already has.
func store[T Metric](r *Registry, name string, create func(string) (T, error)) (Metric, error) {

	created, err := create(name)
	if err != nil {
		return nil, err
	}

	m, loaded := r.metrics.LoadOrStore(name, Metric(created))
	if loaded {
		return m.(Metric), nil
	}
	r.size.Add(1)

	if r.logger != nil {
		r.logger.Debug("Metric %s registered as %s", name, created.Kind())
	}
	return m.(Metric), nil
}

func cast[T Metric](m Metric) (T, error) {

	t, ok := m.(T)
	if !ok {
		var zero T
		return zero, errorc.With(ErrKindMismatch, errorc.String("name", m.Name()), errorc.String("kind", m.Kind().String()))
	}
	return t, nil
}

// Write serializes every registered metric into w. Metrics are written in
// no particular order; the first failure aborts the write.
func (r *Registry) Write(w io.Writer) error {

	serializer := r.serializer.Load().Serializer

	var err error
	r.metrics.Range(func(_, value interface{}) bool {
		m := value.(Metric)
		if err = serializer.Serialize(m, w); err != nil {
			var se *SerializationError
			if !errors.As(err, &se) {
				err = &SerializationError{Kind: m.Kind(), Name: m.Name(), Err: err}
			}
			return false
		}
		return true
	})
	return err
}

// ListMetricNames returns the sorted identities of all registered metrics.
func (r *Registry) ListMetricNames() []string {

	var names []string
	r.metrics.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}
