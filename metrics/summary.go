package metrics

import (
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ygrebnov/errorc"
)

var DefaultQuantiles = []float64{0.5, 0.9, 0.97, 0.99, 1.0}

const (
	DefaultWindow  = 5 * time.Minute
	DefaultWindows = 2
)

// Summary computes rank-based quantiles over a rolling time window.
// Sum and count cover the whole lifetime of the summary.
type Summary struct {
	name      string
	quantiles []float64

	mu    sync.Mutex
	sum   float64
	count uint64

	window *timeWindowQuantile
}

func newSummary(name string, quantiles []float64, windows int, window time.Duration) (*Summary, error) {

	if err := validateQuantiles(quantiles); err != nil {
		return nil, err
	}
	if windows <= 0 {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("windows", strconv.Itoa(windows)))
	}
	if window <= 0 || window < time.Duration(windows) {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("window", window.String()))
	}

	sorted := make([]float64, len(quantiles))
	copy(sorted, quantiles)
	sort.Float64s(sorted)

	return &Summary{
		name:      name,
		quantiles: sorted,
		window:    newTimeWindowQuantile(window, windows),
	}, nil
}

func validateQuantiles(quantiles []float64) error {

	for _, q := range quantiles {
		if q < 0 || q > 1 || math.IsNaN(q) {
			return errorc.With(ErrInvalidQuantile, errorc.String("quantile", strconv.FormatFloat(q, 'g', -1, 64)))
		}
	}
	return nil
}

func (s *Summary) Name() string { return s.name }
func (s *Summary) Kind() Kind   { return KindSummary }

// Update adds v to the lifetime sum and count and to the current window.
func (s *Summary) Update(v float64) {

	s.mu.Lock()
	s.sum += v
	s.count++
	s.mu.Unlock()

	s.window.insert(v)
}

// UpdateDuration records the seconds elapsed since start.
func (s *Summary) UpdateDuration(start time.Time) {
	s.Update(time.Since(start).Seconds())
}

func (s *Summary) Sum() float64 {

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum
}

func (s *Summary) Count() uint64 {

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Quantile returns the estimated value at phi, or NaN when the current window is empty.
func (s *Summary) Quantile(phi float64) float64 {
	return s.window.get(phi)
}

// Quantiles returns the configured quantiles in ascending order.
func (s *Summary) Quantiles() []float64 {

	quantiles := make([]float64, len(s.quantiles))
	copy(quantiles, s.quantiles)
	return quantiles
}

// QuantileValues returns the estimated value of every configured quantile,
// in the order returned by Quantiles.
func (s *Summary) QuantileValues() []float64 {
	return s.window.getAll(s.quantiles)
}
