package dataset

import "math"

// Source supplies the uniform draws used by the generator.
// Implementations are not safe for concurrent use.
type Source interface {
	// NextDouble returns a value in [0,1).
	NextDouble() float64
	// Next returns a value in [0,maxValue).
	Next(maxValue int) int
}

const (
	subtractiveMBig  = math.MaxInt32
	subtractiveMSeed = 161803398
)

// SubtractiveSource is Knuth's subtractive generator as shipped by the .NET
// runtime's seeded System.Random, so equal seeds yield equal draw sequences.
type SubtractiveSource struct {
	seedArray [56]int32
	inext     int
	inextp    int
}

// NewSubtractiveSource seeds a generator.
func NewSubtractiveSource(seed int32) *SubtractiveSource {
	s := &SubtractiveSource{}

	subtraction := seed
	if seed == math.MinInt32 {
		subtraction = math.MaxInt32
	} else if seed < 0 {
		subtraction = -seed
	}

	mj := subtractiveMSeed - subtraction
	s.seedArray[55] = mj
	mk := int32(1)
	ii := 0
	for i := 1; i < 55; i++ {
		if ii += 21; ii >= 55 {
			ii -= 55
		}
		s.seedArray[ii] = mk
		mk = mj - mk
		if mk < 0 {
			mk += subtractiveMBig
		}
		mj = s.seedArray[ii]
	}

	for k := 1; k < 5; k++ {
		for i := 1; i < 56; i++ {
			n := i + 30
			if n >= 55 {
				n -= 55
			}
			s.seedArray[i] -= s.seedArray[1+n]
			if s.seedArray[i] < 0 {
				s.seedArray[i] += subtractiveMBig
			}
		}
	}

	s.inext = 0
	s.inextp = 21
	return s
}

func (s *SubtractiveSource) internalSample() int32 {
	locINext := s.inext + 1
	if locINext >= 56 {
		locINext = 1
	}
	locINextp := s.inextp + 1
	if locINextp >= 56 {
		locINextp = 1
	}

	ret := s.seedArray[locINext] - s.seedArray[locINextp]
	if ret == subtractiveMBig {
		ret--
	}
	if ret < 0 {
		ret += subtractiveMBig
	}

	s.seedArray[locINext] = ret
	s.inext = locINext
	s.inextp = locINextp
	return ret
}

func (s *SubtractiveSource) sample() float64 {
	return float64(s.internalSample()) * (1.0 / subtractiveMBig)
}

// NextDouble returns a value in [0,1).
func (s *SubtractiveSource) NextDouble() float64 {
	return s.sample()
}

// Next returns a value in [0,maxValue). maxValue <= 0 yields 0.
func (s *SubtractiveSource) Next(maxValue int) int {
	if maxValue <= 0 {
		return 0
	}
	return int(s.sample() * float64(maxValue))
}
