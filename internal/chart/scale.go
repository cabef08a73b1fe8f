package chart

import (
	"math"
	"strconv"
)

// scale maps data values onto the vertical pixel range
type scale struct {
	lo, hi   float64
	from, to float64
	log      bool
}

// newScale fits values into [from, to]; zeroBased anchors linear axes at 0 for bars.
// Log axes only show positive values.
func newScale(values []float64, from, to float64, log, zeroBased bool) scale {
	s := scale{from: from, to: to, log: log}
	if log {
		var positive []float64
		for _, v := range values {
			if v > 0 {
				positive = append(positive, v)
			}
		}
		if len(positive) == 0 {
			s.lo, s.hi = 0, 1
			return s
		}
		lo, hi := bounds(positive)
		s.lo, s.hi = math.Floor(math.Log10(lo)), math.Ceil(math.Log10(hi))
		if s.hi == s.lo {
			s.hi++
		}
		return s
	}
	if len(values) == 0 {
		s.lo, s.hi = 0, 1
		return s
	}
	s.lo, s.hi = bounds(values)
	if zeroBased {
		s.lo = math.Min(0, s.lo)
	}
	if s.hi == s.lo {
		s.hi = s.lo + 1
	}
	return s
}

// at returns the pixel position of v; ok is false when v cannot be drawn
func (s scale) at(v float64) (float64, bool) {
	if s.log {
		if v <= 0 {
			return 0, false
		}
		v = math.Log10(v)
	}
	return s.from + (v-s.lo)/(s.hi-s.lo)*(s.to-s.from), true
}

// base is where bars start
func (s scale) base() float64 {
	if s.log || s.lo > 0 {
		return s.from
	}
	p, _ := s.at(0)
	return p
}

func (s scale) ticks() []float64 {
	if !s.log {
		return niceTicks(s.lo, s.hi, yTicks)
	}
	var out []float64
	for e := s.lo; e <= s.hi; e++ {
		out = append(out, math.Pow(10, e))
	}
	return out
}

type linear struct {
	lo, hi   float64
	from, to float64
}

func (l linear) at(v float64) float64 {
	if l.hi == l.lo {
		return (l.from + l.to) / 2
	}
	return l.from + (v-l.lo)/(l.hi-l.lo)*(l.to-l.from)
}

func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// niceTicks picks about n round tick values covering [lo, hi]
func niceTicks(lo, hi float64, n int) []float64 {
	if hi <= lo {
		return []float64{lo}
	}
	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		step = m * mag
		if step >= raw {
			break
		}
	}
	var ticks []float64
	for k := math.Ceil(lo / step); k*step <= hi+step*1e-9; k++ {
		// trim float noise such as 0.30000000000000004
		t, _ := strconv.ParseFloat(strconv.FormatFloat(k*step, 'g', 12, 64), 64)
		ticks = append(ticks, t)
	}
	if len(ticks) == 0 {
		ticks = append(ticks, lo)
	}
	return ticks
}
