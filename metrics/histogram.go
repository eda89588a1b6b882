package metrics

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	e10Min             = -9
	e10Max             = 18
	decimalBucketCount = e10Max - e10Min
	bucketsPerDecimal  = 18
	bucketsCount       = decimalBucketCount * bucketsPerDecimal
	rangeFormat        = "%.3e"
)

var (
	bucketMultiplier = math.Pow(10, 1.0/bucketsPerDecimal)
	lowerBucketRange = fmt.Sprintf("0..."+rangeFormat, math.Pow10(e10Min))
	upperBucketRange = fmt.Sprintf(rangeFormat+"...+Inf", math.Pow10(e10Max))
	bucketRanges     = makeBucketRanges()
)

func makeBucketRanges() [bucketsCount]string {

	var ranges [bucketsCount]string
	for decimal := 0; decimal < decimalBucketCount; decimal++ {
		base := math.Pow10(e10Min + decimal)
		start := fmt.Sprintf(rangeFormat, base)
		for offset := 0; offset < bucketsPerDecimal; offset++ {
			end := fmt.Sprintf(rangeFormat, base*math.Pow(bucketMultiplier, float64(offset+1)))
			ranges[decimal*bucketsPerDecimal+offset] = start + "..." + end
			start = end
		}
	}
	return ranges
}

// Histogram is a histogram for non-negative values with buckets spread
// logarithmically over [1e-9, 1e18], 18 buckets per decade.
//
// Each bucket is exposed with a vmrange label holding its value range,
// so histograms with different value distributions can be merged.
type Histogram struct {
	name string

	mu      sync.Mutex
	buckets [bucketsCount]uint64
	lower   uint64
	upper   uint64
	sum     float64
}

func newHistogram(name string) *Histogram {
	return &Histogram{name: name}
}

func (h *Histogram) Name() string { return h.name }
func (h *Histogram) Kind() Kind   { return KindHistogram }

// Update records v. Negative and NaN values are ignored.
func (h *Histogram) Update(v float64) {

	if v < 0 || math.IsNaN(v) {
		return
	}

	index := (math.Log10(v) - e10Min) * bucketsPerDecimal

	h.mu.Lock()
	h.sum += v
	switch {
	case index < 0:
		h.lower++
	case index >= bucketsCount:
		h.upper++
	default:
		h.buckets[int(index)]++
	}
	h.mu.Unlock()
}

// UpdateDuration records the seconds elapsed since start.
func (h *Histogram) UpdateDuration(start time.Time) {
	h.Update(time.Since(start).Seconds())
}

// Reset zeroes all buckets and the sum.
func (h *Histogram) Reset() {

	h.mu.Lock()
	h.buckets = [bucketsCount]uint64{}
	h.lower = 0
	h.upper = 0
	h.sum = 0
	h.mu.Unlock()
}

// Visit calls f for every non-empty bucket in ascending range order.
// f must not call back into h.
func (h *Histogram) Visit(f func(vmrange string, count uint64)) {
	h.visit(f)
}

func (h *Histogram) Sum() float64 {

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// visit reads buckets and sum under one lock so the pair is consistent.
func (h *Histogram) visit(f func(vmrange string, count uint64)) float64 {

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lower > 0 {
		f(lowerBucketRange, h.lower)
	}
	for i, count := range h.buckets {
		if count > 0 {
			f(bucketRanges[i], count)
		}
	}
	if h.upper > 0 {
		f(upperBucketRange, h.upper)
	}
	return h.sum
}

// BucketRange returns the vmrange of the regular bucket with the given index.
func BucketRange(index int) string {

	if index < 0 || index >= bucketsCount {
		return ""
	}
	return bucketRanges[index]
}
