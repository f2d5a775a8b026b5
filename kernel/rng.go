package kernel

import (
	"fmt"
	"math"
)

// rngModulus is 2^31 - 1, the Mersenne prime modulus of the Lehmer
// generator.
const rngModulus int64 = 2147483647

// rngMultiplier is 7^5.
const rngMultiplier int64 = 16807

// seeds holds 15 fixed seed streams, in stream order 1..15 (seeds[0] is
// stream 1).
var seeds = [15]int64{
	1973272912, 747177549, 20464843, 640830765, 1098742207,
	78126602, 84743774, 831312807, 124667236, 1172177002,
	1124933064, 1223960546, 1878892440, 1449793615, 553303732,
}

// RNG is a 7^5 mod (2^31-1) Lehmer generator over 15 independent,
// reproducible streams. It is instance-owned: a Kernel never shares an
// RNG with another Kernel, so independent simulation runs never
// interfere.
type RNG struct {
	stream int // 1..15; 0 before the first Stream/rotate call
	state  int64

	hasSpare bool // Marsaglia polar cache for Normal
	spareV2  float64
}

func newRNG() *RNG {
	return &RNG{}
}

// Stream selects stream i (1..15) explicitly, reseeding from the fixed
// table.
func (r *RNG) Stream(i int) error {
	if i < 1 || i > 15 {
		return fmt.Errorf("rng: stream %d out of range 1..15: %w", i, ErrInvalidArgument)
	}
	r.stream = i
	r.state = seeds[i-1]
	r.hasSpare = false
	return nil
}

// CurrentStream returns the index (1..15) of the currently selected
// stream, or 0 if Stream/rotate has never been called.
func (r *RNG) CurrentStream() int { return r.stream }

// rotate advances to the next of the 15 seed streams, wrapping from 15
// back to 1. Called by Kernel.Init.
func (r *RNG) rotate() {
	next := r.stream%15 + 1
	_ = r.Stream(next) // next is always in 1..15
}

// Ranf advances the generator and returns the next uniform(0,1) variate.
func (r *RNG) Ranf() float64 {
	r.state = (rngMultiplier * r.state) % rngModulus
	return float64(r.state) / float64(rngModulus)
}

// Uniform returns a uniform variate in [a, b]. Requires a <= b.
func (r *RNG) Uniform(a, b float64) (float64, error) {
	if a > b {
		return 0, fmt.Errorf("rng: uniform(%v, %v): a > b: %w", a, b, ErrInvalidArgument)
	}
	return a + (b-a)*r.Ranf(), nil
}

// Random returns a uniform integer in [i, n]. Requires i <= n.
func (r *RNG) Random(i, n int) (int, error) {
	if i > n {
		return 0, fmt.Errorf("rng: random(%d, %d): i > n: %w", i, n, ErrInvalidArgument)
	}
	return i + int(float64(n-i+1)*r.Ranf()), nil
}

// Expntl returns an exponential variate with mean x.
func (r *RNG) Expntl(x float64) (float64, error) {
	if !(x > 0) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("rng: expntl(%v): mean must be positive and finite: %w", x, ErrInvalidArgument)
	}
	return -x * math.Log(r.Ranf()), nil
}

// Erlang returns an Erlang-k variate with mean x and standard deviation
// s, k = floor((x/s)^2), built as the sum of k exponential stages each
// with mean x/k. Requires s <= x (otherwise k < 1).
func (r *RNG) Erlang(x, s float64) (float64, error) {
	if !(x > 0) || !(s > 0) {
		return 0, fmt.Errorf("rng: erlang(%v, %v): x and s must be positive: %w", x, s, ErrInvalidArgument)
	}
	if s > x {
		return 0, fmt.Errorf("rng: erlang(%v, %v): s > x: %w", x, s, ErrInvalidArgument)
	}
	z := x / s
	k := int(z * z)
	if k < 1 {
		k = 1
	}
	stageMean := x / float64(k)
	var sum float64
	for i := 0; i < k; i++ {
		sum += -stageMean * math.Log(r.Ranf())
	}
	return sum, nil
}

// Hyperx returns a hyperexponential variate with mean x and standard
// deviation s, via Morse's two-stage formula. Requires s > x.
func (r *RNG) Hyperx(x, s float64) (float64, error) {
	if !(x > 0) || !(s > 0) {
		return 0, fmt.Errorf("rng: hyperx(%v, %v): x and s must be positive: %w", x, s, ErrInvalidArgument)
	}
	if s <= x {
		return 0, fmt.Errorf("rng: hyperx(%v, %v): requires s > x: %w", x, s, ErrInvalidArgument)
	}
	cv := s / x
	z := cv * cv
	p := 0.5 * (1.0 - math.Sqrt((z-1.0)/(z+1.0)))
	if r.Ranf() > p {
		return -0.5 * (x / (1.0 - p)) * math.Log(r.Ranf()), nil
	}
	return -0.5 * (x / p) * math.Log(r.Ranf()), nil
}

// Normal returns a normal variate with mean x and standard deviation s,
// via the Marsaglia polar method. Every other call is served from a
// cached second variate produced by the same pair of uniforms.
func (r *RNG) Normal(x, s float64) float64 {
	if r.hasSpare {
		r.hasSpare = false
		return x + s*r.spareV2
	}
	var v1, v2, rsq float64
	for {
		v1 = 2*r.Ranf() - 1
		v2 = 2*r.Ranf() - 1
		rsq = v1*v1 + v2*v2
		if rsq > 0 && rsq < 1 {
			break
		}
	}
	factor := math.Sqrt(-2 * math.Log(rsq) / rsq)
	r.spareV2 = v2 * factor
	r.hasSpare = true
	return x + s*v1*factor
}
