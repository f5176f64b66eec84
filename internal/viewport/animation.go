package viewport

import "time"

// ScrollDuration is how long a smooth page scroll takes.
const ScrollDuration = 300 * time.Millisecond

// ScrollAnimation describes a smooth scroll between two offsets.
type ScrollAnimation struct {
	From float64
	To   float64
}

// At returns the offset at progress p in [0, 1] with ease-in-out timing.
func (a ScrollAnimation) At(p float64) float64 {
	if p <= 0 {
		return a.From
	}
	if p >= 1 {
		return a.To
	}
	eased := p * p * (3 - 2*p)
	return a.From + (a.To-a.From)*eased
}

// Run drives the animation to completion through apply. It is used where no
// toolkit animation loop is available.
func (a ScrollAnimation) Run(apply func(offset float64), steps int) {
	if steps < 1 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		apply(a.At(float64(i) / float64(steps)))
	}
}
