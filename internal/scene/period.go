package scene

import (
	"fmt"
	"math/rand"
)

// PrimeFactors returns the prime factorisation of n with multiplicity,
// in ascending order.
func PrimeFactors(n int) []int {
	var primes []int
	for n > 1 && n%2 == 0 {
		primes = append(primes, 2)
		n /= 2
	}
	for i := 3; i*i <= n; i += 2 {
		for n%i == 0 {
			primes = append(primes, i)
			n /= i
		}
	}
	if n > 2 {
		primes = append(primes, n)
	}
	return primes
}

// PeriodChooser draws cycle periods that divide the total frame count.
type PeriodChooser struct {
	total   int
	min     int
	max     int
	factors []int
}

// NewPeriodChooser validates the prime-factor bounds against totalFrames.
func NewPeriodChooser(totalFrames, minFactors, maxFactors int) (*PeriodChooser, error) {
	if totalFrames < 2 {
		return nil, fmt.Errorf("%w: total frames %d has no prime factors", ErrMalformedPeriodConfig, totalFrames)
	}
	factors := PrimeFactors(totalFrames)
	switch {
	case minFactors < 1:
		return nil, fmt.Errorf("%w: min prime factors %d < 1", ErrMalformedPeriodConfig, minFactors)
	case minFactors > maxFactors:
		return nil, fmt.Errorf("%w: min prime factors %d > max %d", ErrMalformedPeriodConfig, minFactors, maxFactors)
	case maxFactors > len(factors):
		return nil, fmt.Errorf("%w: max prime factors %d exceeds the %d factors of %d",
			ErrMalformedPeriodConfig, maxFactors, len(factors), totalFrames)
	}
	return &PeriodChooser{
		total:   totalFrames,
		min:     minFactors,
		max:     maxFactors,
		factors: factors,
	}, nil
}

// Choose samples between min and max factors without replacement and
// returns their product.
func (p *PeriodChooser) Choose(rng *rand.Rand) int {
	k := p.min + rng.Intn(p.max-p.min+1)
	period := 1
	for _, i := range rng.Perm(len(p.factors))[:k] {
		period *= p.factors[i]
	}
	return period
}
