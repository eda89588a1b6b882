package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// timeWindowQuantile keeps samples for the most recent rotation interval of
// a rolling window split into equal sub-windows. Only the current sub-window
// is ever read, so a sample stays visible between one rotation interval and
// the full window duration.
type timeWindowQuantile struct {
	mu           sync.Mutex
	windows      []timeWindow
	current      int
	rotation     time.Duration
	lastRotation time.Time
	now          func() time.Time
}

type timeWindow struct {
	samples []float64
}

func newTimeWindowQuantile(window time.Duration, windows int) *timeWindowQuantile {

	q := &timeWindowQuantile{
		windows:  make([]timeWindow, windows),
		rotation: window / time.Duration(windows),
		now:      time.Now,
	}
	q.lastRotation = q.now()
	return q
}

func (q *timeWindowQuantile) insert(v float64) {

	q.mu.Lock()
	w := q.rotate()
	w.samples = append(w.samples, v)
	q.mu.Unlock()
}

func (q *timeWindowQuantile) get(phi float64) float64 {

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rotate().get(phi)
}

// getAll computes every phi against the same rotated window.
func (q *timeWindowQuantile) getAll(phis []float64) []float64 {

	q.mu.Lock()
	defer q.mu.Unlock()

	sorted := q.rotate().sorted()
	values := make([]float64, len(phis))
	for i, phi := range phis {
		values[i] = rank(sorted, phi)
	}
	return values
}

// rotate must be called with q.mu held. Every elapsed rotation interval
// clears the current window and advances to the next one; once all windows
// are cleared the remaining intervals only move the index.
func (q *timeWindowQuantile) rotate() *timeWindow {

	elapsed := q.now().Sub(q.lastRotation)
	if elapsed <= q.rotation {
		return &q.windows[q.current]
	}

	steps := int64((elapsed - 1) / q.rotation)
	n := int64(len(q.windows))
	for i := int64(0); i < steps && i < n; i++ {
		q.windows[(int64(q.current)+i)%n] = timeWindow{}
	}
	q.current = int((int64(q.current) + steps) % n)
	q.lastRotation = q.lastRotation.Add(time.Duration(steps) * q.rotation)

	return &q.windows[q.current]
}

func (w *timeWindow) get(phi float64) float64 {
	return rank(w.sorted(), phi)
}

func (w *timeWindow) sorted() []float64 {

	if len(w.samples) == 0 {
		return nil
	}
	samples := make([]float64, len(w.samples))
	copy(samples, w.samples)
	sort.Float64s(samples)
	return samples
}

// rank returns the element at rank ceil(phi*n) of the ascending samples.
func rank(samples []float64, phi float64) float64 {

	n := len(samples)
	if n == 0 {
		return math.NaN()
	}
	if phi <= 0 {
		return samples[0]
	}
	if phi >= 1 {
		return samples[n-1]
	}

	i := int(math.Ceil(phi * float64(n)))
	if i >= n {
		i = n - 1
	}
	return samples[i]
}
