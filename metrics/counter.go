package metrics

import "sync/atomic"

// Counter is an integer counter, e.g. the number of processed requests.
type Counter struct {
	name  string
	value atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Kind() Kind   { return KindCounter }

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add increments the counter by n.
func (c *Counter) Add(n int64) {
	c.value.Add(n)
}

// Dec decrements the counter by one.
func (c *Counter) Dec() {
	c.value.Add(-1)
}

// Sub decrements the counter by n.
func (c *Counter) Sub(n int64) {
	c.value.Add(-n)
}

// Set overwrites the counter value.
func (c *Counter) Set(n int64) {
	c.value.Store(n)
}

func (c *Counter) Get() int64 {
	return c.value.Load()
}
