package metrics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devopsext/vmclient/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreateIdempotent(t *testing.T) {

	r := NewRegistry()

	c1, err := r.GetOrCreateCounter(`foo{bar="baz"}`)
	require.NoError(t, err)
	c2, err := r.GetOrCreateCounter(`foo{bar="baz"}`)
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, r.Size())

	g1, err := r.GetOrCreateGauge("gauge", func() float64 { return 1 })
	require.NoError(t, err)
	g2, err := r.GetOrCreateGauge("gauge", func() float64 { return 2 })
	require.NoError(t, err)
	assert.Same(t, g1, g2)
	assert.Equal(t, 1.0, g2.Get())
	assert.Equal(t, 2, r.Size())

	h1, err := r.GetOrCreateHistogram("histogram")
	require.NoError(t, err)
	h2, err := r.GetOrCreateHistogram("histogram")
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, 3, r.Size())

	s1, err := r.GetOrCreateSummary("summary")
	require.NoError(t, err)
	s2, err := r.GetOrCreateSummaryExt("summary", []float64{0.1}, 3, time.Minute)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, DefaultQuantiles, s2.Quantiles())
	assert.Equal(t, 4, r.Size())
}

func TestRegistryInvalidName(t *testing.T) {

	r := NewRegistry()

	_, err := r.GetOrCreateCounter("foo{")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = r.GetOrCreateHistogram("")
	assert.ErrorIs(t, err, ErrEmptyName)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = r.GetOrCreateSummary("1summary")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = r.GetOrCreateGauge("foo bar", func() float64 { return 0 })
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.ListMetricNames())
}

func TestRegistryInvalidConfiguration(t *testing.T) {

	r := NewRegistry()

	_, err := r.GetOrCreateGauge("gauge", nil)
	assert.ErrorIs(t, err, ErrMissingSupplier)

	_, err = r.GetOrCreateSummaryExt("summary", []float64{2}, 2, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidQuantile)

	assert.Equal(t, 0, r.Size())

	// a failed creation does not poison the identity
	s, err := r.GetOrCreateSummary("summary")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRegistryKindMismatch(t *testing.T) {

	r := NewRegistry()

	_, err := r.GetOrCreateCounter("foo")
	require.NoError(t, err)

	h, err := r.GetOrCreateHistogram("foo")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Equal(t, 1, r.Size())
}

func TestRegistryLabelOrderIsIdentity(t *testing.T) {

	r := NewRegistry()

	c1, err := r.CreateCounter().Name("foo").Label("a", "1").Label("b", "2").Register()
	require.NoError(t, err)
	c2, err := r.CreateCounter().Name("foo").Label("b", "2").Label("a", "1").Register()
	require.NoError(t, err)

	assert.NotSame(t, c1, c2)
	assert.Equal(t, 2, r.Size())
	assert.Equal(t, []string{`foo{a="1", b="2"}`, `foo{b="2", a="1"}`}, r.ListMetricNames())
}

func TestRegistryConcurrentFirstTouch(t *testing.T) {

	r := NewRegistry()

	const n = 64
	counters := make([]*Counter, n)
	summaries := make([]*Summary, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.GetOrCreateCounter(`requests_total{path="/"}`)
			if err == nil {
				c.Inc()
			}
			counters[i] = c
			summaries[i], _ = r.CreateSummary().Name("latency").Register()
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, counters[0], counters[i])
		assert.Same(t, summaries[0], summaries[i])
	}
	assert.Equal(t, int64(n), counters[0].Get())
	assert.Equal(t, 2, r.Size())
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func TestRegistryWriteFailure(t *testing.T) {

	r := NewRegistry()
	c, err := r.GetOrCreateCounter(`foo{bar="baz"}`)
	require.NoError(t, err)
	c.Inc()

	ioErr := errors.New("stream closed")
	err = r.Write(&failingWriter{err: ioErr})
	require.Error(t, err)
	assert.ErrorIs(t, err, ioErr)

	var se *SerializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, `foo{bar="baz"}`, se.Name)
	assert.Equal(t, KindCounter, se.Kind)
	assert.Contains(t, err.Error(), `foo{bar="baz"}`)
}

type linesSerializer struct {
	err error
}

func (ls linesSerializer) Serialize(m Metric, w io.Writer) error {

	if ls.err != nil {
		return ls.err
	}
	_, err := io.WriteString(w, m.Kind().String()+" "+m.Name()+"\n")
	return err
}

func TestRegistryCustomSerializer(t *testing.T) {

	r := NewRegistry(WithSerializer(linesSerializer{}))
	_, err := r.GetOrCreateHistogram("foo")
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, r.Write(&b))
	assert.Equal(t, "histogram foo\n", b.String())

	failure := errors.New("boom")
	r.SetSerializer(linesSerializer{err: failure})
	err = r.Write(&b)

	var se *SerializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "foo", se.Name)
	assert.ErrorIs(t, err, failure)

	r.SetSerializer(nil)
	b.Reset()
	require.NoError(t, r.Write(&b))
	assert.Equal(t, "foo_sum 0\nfoo_count 0\n", b.String())
}

func TestRegistryListMetricNames(t *testing.T) {

	r := NewRegistry()
	for _, name := range []string{"c", "a", `b{x="y"}`} {
		_, err := r.GetOrCreateCounter(name)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", `b{x="y"}`, "c"}, r.ListMetricNames())
}

func TestRegistryConcurrentCreationKeepsOwnConfigError(t *testing.T) {

	r := NewRegistry()
	name := `latency{path="/"}`

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	var broken error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, broken = getOrCreate(r, name, func(ident string) (*Summary, error) {
			close(started)
			<-release
			return newSummary(ident, []float64{2}, DefaultWindows, DefaultWindow)
		})
	}()
	<-started

	var valid *Summary
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		valid, err = r.GetOrCreateSummary(name)
	}()

	// let the second caller join the in-flight creation
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.ErrorIs(t, broken, ErrInvalidQuantile)
	require.NoError(t, err)
	require.NotNil(t, valid)
	assert.Equal(t, DefaultQuantiles, valid.Quantiles())
	assert.Equal(t, 1, r.Size())

	again, err := r.GetOrCreateSummary(name)
	require.NoError(t, err)
	assert.Same(t, valid, again)
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	debugs []string
}

func (l *recordingLogger) record(dst *[]string, obj interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*dst = append(*dst, fmt.Sprint(obj))
}

func (l *recordingLogger) Info(obj interface{}, args ...interface{}) common.Logger {
	return l
}

func (l *recordingLogger) Warn(obj interface{}, args ...interface{}) common.Logger {
	return l
}

func (l *recordingLogger) Error(obj interface{}, args ...interface{}) common.Logger {
	l.record(&l.errors, obj)
	return l
}

func (l *recordingLogger) Debug(obj interface{}, args ...interface{}) common.Logger {
	l.record(&l.debugs, obj)
	return l
}

func (l *recordingLogger) Panic(obj interface{}, args ...interface{}) {}

func (l *recordingLogger) Stack(offset int) common.Logger {
	return l
}

func TestRegistryWriteFailureIsNotLogged(t *testing.T) {

	logger := &recordingLogger{}
	r := NewRegistry(WithLogger(logger))
	_, err := r.GetOrCreateCounter("foo")
	require.NoError(t, err)

	err = r.Write(&failingWriter{err: errors.New("stream closed")})
	require.Error(t, err)

	assert.Len(t, logger.debugs, 1)
	assert.Empty(t, logger.errors)
}
