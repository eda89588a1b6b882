package metrics

// Gauge reports a value computed by an external supplier at read time.
type Gauge struct {
	name     string
	supplier func() float64
}

func newGauge(name string, supplier func() float64) (*Gauge, error) {

	if supplier == nil {
		return nil, ErrMissingSupplier
	}
	return &Gauge{name: name, supplier: supplier}, nil
}

func (g *Gauge) Name() string { return g.name }
func (g *Gauge) Kind() Kind   { return KindGauge }

// Get calls the supplier and returns its result.
func (g *Gauge) Get() float64 {
	return g.supplier()
}
