package metrics

// Kind enumerates the closed set of metric types the registry can hold.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
	KindSummary
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	case KindSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Metric is implemented by *Counter, *Gauge, *Histogram and *Summary only.
type Metric interface {
	// Name returns the metric identity, labels included.
	Name() string
	Kind() Kind
}

// splitName splits an identity into its base name and the label list
// without the surrounding curly braces.
func splitName(name string) (string, string) {

	for i := 0; i < len(name); i++ {
		if name[i] == '{' {
			labels := name[i+1:]
			if n := len(labels); n > 0 && labels[n-1] == '}' {
				labels = labels[:n-1]
			}
			return name[:i], labels
		}
	}
	return name, ""
}
