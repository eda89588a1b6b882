package metrics

import (
	"bytes"
	"io"
	"strconv"
)

// Serializer renders a single metric into w.
type Serializer interface {
	Serialize(m Metric, w io.Writer) error
}

// PrometheusSerializer writes metrics in the Prometheus text exposition format.
type PrometheusSerializer struct{}

func NewPrometheusSerializer() *PrometheusSerializer {
	return &PrometheusSerializer{}
}

// Serialize renders m into a buffer and passes it to w with a single write.
func (ps *PrometheusSerializer) Serialize(m Metric, w io.Writer) error {

	var b bytes.Buffer

	switch v := m.(type) {
	case *Counter:
		writeValue(&b, v.Name(), strconv.FormatInt(v.Get(), 10))
	case *Gauge:
		writeValue(&b, v.Name(), formatFloat(v.Get()))
	case *Histogram:
		writeHistogram(&b, v)
	case *Summary:
		writeSummary(&b, v)
	default:
		return nil
	}

	if _, err := w.Write(b.Bytes()); err != nil {
		return &SerializationError{Kind: m.Kind(), Name: m.Name(), Err: err}
	}
	return nil
}

func writeHistogram(b *bytes.Buffer, h *Histogram) {

	name, labels := splitName(h.Name())
	var rows uint64

	sum := h.visit(func(vmrange string, count uint64) {
		b.WriteString(name)
		b.WriteString("_bucket{")
		if labels != "" {
			b.WriteString(labels)
			b.WriteByte(',')
		}
		b.WriteString(`vmrange="`)
		b.WriteString(vmrange)
		b.WriteString(`"} `)
		b.WriteString(strconv.FormatUint(count, 10))
		b.WriteByte('\n')
		rows++
	})

	writeSuffixed(b, name, "_sum", labels, formatFloat(sum))
	writeSuffixed(b, name, "_count", labels, strconv.FormatUint(rows, 10))
}

func writeSummary(b *bytes.Buffer, s *Summary) {

	name, labels := splitName(s.Name())

	quantiles := s.Quantiles()
	values := s.QuantileValues()
	for i, q := range quantiles {
		b.WriteString(name)
		b.WriteByte('{')
		if labels != "" {
			b.WriteString(labels)
			b.WriteByte(',')
		}
		b.WriteString(`quantile="`)
		b.WriteString(formatFloat(q))
		b.WriteString(`"} `)
		b.WriteString(formatFloat(values[i]))
		b.WriteByte('\n')
	}

	writeSuffixed(b, name, "_sum", labels, formatFloat(s.Sum()))
	writeSuffixed(b, name, "_count", labels, strconv.FormatUint(s.Count(), 10))
}

func writeSuffixed(b *bytes.Buffer, name, suffix, labels, value string) {

	b.WriteString(name)
	b.WriteString(suffix)
	if labels != "" {
		b.WriteByte('{')
		b.WriteString(labels)
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func writeValue(b *bytes.Buffer, name, value string) {

	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
