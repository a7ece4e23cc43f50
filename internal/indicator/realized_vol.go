package indicator

import "math"

// RealizedVol computes the rolling standard deviation of log returns over a
// fixed window of observed prices.
type RealizedVol struct {
	window    int
	returns   []float64
	lastPrice float64
	seen      int
}

// NewRealizedVol creates a realized volatility indicator over the given
// return window.
func NewRealizedVol(window int) *RealizedVol {
	if window <= 1 {
		window = 30
	}

	return &RealizedVol{
		window:  window,
		returns: make([]float64, 0, window),
	}
}

// Name returns the indicator type.
func (r *RealizedVol) Name() IndicatorType {
	return IndicatorTypeRealizedVol
}

// Update feeds the next observed price.
func (r *RealizedVol) Update(price float64) {
	if price <= 0 {
		return
	}

	if r.lastPrice > 0 {
		ret := math.Log(price / r.lastPrice)

		if len(r.returns) == r.window {
			copy(r.returns, r.returns[1:])
			r.returns[r.window-1] = ret
		} else {
			r.returns = append(r.returns, ret)
		}

		r.seen++
	}

	r.lastPrice = price
}

// Value returns the sample standard deviation of the recorded returns.
func (r *RealizedVol) Value() (float64, error) {
	if !r.Ready() {
		return 0, notReadyError(IndicatorTypeRealizedVol, r.window, len(r.returns))
	}

	n := len(r.returns)

	var sum float64
	for _, v := range r.returns {
		sum += v
	}

	mean := sum / float64(n)

	var acc float64

	for _, v := range r.returns {
		d := v - mean
		acc += d * d
	}

	return math.Sqrt(acc / float64(n-1)), nil
}

// Ready reports whether a full window of returns has been recorded.
func (r *RealizedVol) Ready() bool {
	return len(r.returns) >= r.window
}

// Reset clears all accumulated state.
func (r *RealizedVol) Reset() {
	r.returns = r.returns[:0]
	r.lastPrice = 0
	r.seen = 0
}
