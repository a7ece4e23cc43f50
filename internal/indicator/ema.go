package indicator

// EMA implements a streaming exponential moving average.
type EMA struct {
	period int
	alpha  float64
	value  float64
	count  int
}

// NewEMA creates an EMA over the given period. The first period observations
// seed the average with a simple mean before exponential weighting begins.
func NewEMA(period int) *EMA {
	if period <= 0 {
		period = 20
	}

	return &EMA{
		period: period,
		alpha:  2.0 / (float64(period) + 1.0),
	}
}

// Name returns the indicator type.
func (e *EMA) Name() IndicatorType {
	return IndicatorTypeEMA
}

// Update feeds the next observed price.
func (e *EMA) Update(price float64) {
	e.count++

	if e.count == 1 {
		e.value = price

		return
	}

	if e.count <= e.period {
		// Simple mean while seeding.
		e.value += (price - e.value) / float64(e.count)

		return
	}

	e.value += e.alpha * (price - e.value)
}

// Value returns the current average.
func (e *EMA) Value() (float64, error) {
	if !e.Ready() {
		return 0, notReadyError(IndicatorTypeEMA, e.period, e.count)
	}

	return e.value, nil
}

// Ready reports whether a full seeding period has been observed.
func (e *EMA) Ready() bool {
	return e.count >= e.period
}

// Reset clears all accumulated state.
func (e *EMA) Reset() {
	e.value = 0
	e.count = 0
}
