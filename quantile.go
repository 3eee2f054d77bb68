package framesched

import (
	"slices"
	"time"
)

// quantile is a streaming P² quantile estimator (Jain & Chlamtac, 1985),
// providing O(1) updates without retaining observations.
//
// Not safe for concurrent use.
type quantile struct {
	heights  [5]float64 // marker heights
	desired  [5]float64 // desired marker positions
	step     [5]float64 // desired position increments
	position [5]int     // actual marker positions
	p        float64
	count    int
}

func newQuantile(p float64) *quantile {
	p = min(max(p, 0), 1)
	return &quantile{
		p:    p,
		step: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

func (x *quantile) observe(v float64) {
	x.count++

	if x.count <= 5 {
		x.heights[x.count-1] = v
		if x.count == 5 {
			slices.Sort(x.heights[:])
			for i := range x.position {
				x.position[i] = i
			}
			x.desired = [5]float64{0, 2 * x.p, 4 * x.p, 2 + 2*x.p, 4}
		}
		return
	}

	var cell int
	switch {
	case v < x.heights[0]:
		x.heights[0] = v
	case v >= x.heights[4]:
		x.heights[4] = v
		cell = 3
	default:
		for cell = 0; cell < 3; cell++ {
			if v < x.heights[cell+1] {
				break
			}
		}
	}

	for i := cell + 1; i < 5; i++ {
		x.position[i]++
	}
	for i := range x.desired {
		x.desired[i] += x.step[i]
	}

	for i := 1; i < 4; i++ {
		drift := x.desired[i] - float64(x.position[i])
		up := drift >= 1 && x.position[i+1]-x.position[i] > 1
		down := drift <= -1 && x.position[i-1]-x.position[i] < -1
		if !up && !down {
			continue
		}
		d := 1
		if down {
			d = -1
		}
		if h := x.parabolic(i, d); x.heights[i-1] < h && h < x.heights[i+1] {
			x.heights[i] = h
		} else {
			x.heights[i] = x.linear(i, d)
		}
		x.position[i] += d
	}
}

func (x *quantile) parabolic(i, d int) float64 {
	n0, n1, n2 := float64(x.position[i-1]), float64(x.position[i]), float64(x.position[i+1])
	q0, q1, q2 := x.heights[i-1], x.heights[i], x.heights[i+1]
	df := float64(d)
	return q1 + df/(n2-n0)*((n1-n0+df)*(q2-q1)/(n2-n1)+(n2-n1-df)*(q1-q0)/(n1-n0))
}

func (x *quantile) linear(i, d int) float64 {
	return x.heights[i] + float64(d)*(x.heights[i+d]-x.heights[i])/float64(x.position[i+d]-x.position[i])
}

func (x *quantile) value() float64 {
	switch {
	case x.count == 0:
		return 0
	case x.count < 5:
		sorted := slices.Clone(x.heights[:x.count])
		slices.Sort(sorted)
		return sorted[int(float64(x.count-1)*x.p)]
	default:
		return x.heights[2]
	}
}

// durationSummary tracks the distribution of a duration-valued observation.
type durationSummary struct {
	p50, p90, p99 *quantile
	sum, max      time.Duration
	count         int
}

func newDurationSummary() *durationSummary {
	return &durationSummary{
		p50: newQuantile(0.50),
		p90: newQuantile(0.90),
		p99: newQuantile(0.99),
	}
}

func (x *durationSummary) observe(d time.Duration) {
	x.count++
	x.sum += d
	x.max = max(x.max, d)
	v := float64(d)
	x.p50.observe(v)
	x.p90.observe(v)
	x.p99.observe(v)
}

func (x *durationSummary) snapshot() DurationStats {
	s := DurationStats{
		Count: x.count,
		Max:   x.max,
		P50:   time.Duration(x.p50.value()),
		P90:   time.Duration(x.p90.value()),
		P99:   time.Duration(x.p99.value()),
	}
	if x.count > 0 {
		s.Mean = x.sum / time.Duration(x.count)
	}
	return s
}
