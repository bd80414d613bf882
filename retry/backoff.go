// Package retry provides backoff delay generators and a client middleware
// that retries requests matching a strategy.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Jitter perturbs the delay of a given attempt.
type Jitter func(attempt int) time.Duration

// NoJitter leaves delays unperturbed.
func NoJitter(int) time.Duration { return 0 }

// RandomJitter adds a uniformly random duration in [0, max).
func RandomJitter(max time.Duration) Jitter {
	return func(int) time.Duration {
		return time.Duration(rand.Int63n(int64(max)))
	}
}

// Backoff produces a finite delay sequence, one entry per retry attempt.
// When the sequence is exhausted the last error or response is handed back
// as-is.
type Backoff interface {
	Delays() []time.Duration
}

// Periodic yields a constant interval for each attempt.
type Periodic struct {
	Attempts int
	Interval time.Duration
	Jitter   Jitter
}

func (b Periodic) Delays() []time.Duration {
	delays := make([]time.Duration, b.Attempts)
	for i := range delays {
		delays[i] = b.Interval + jitter(b.Jitter, i)
	}
	return delays
}

// Exponential yields base*factor^i, capped at Max when Max is positive.
type Exponential struct {
	Attempts int
	Base     time.Duration
	Factor   float64
	Max      time.Duration
	Jitter   Jitter
}

func (b Exponential) Delays() []time.Duration {
	delays := make([]time.Duration, b.Attempts)
	for i := range delays {
		d := time.Duration(float64(b.Base)*math.Pow(b.Factor, float64(i))) + jitter(b.Jitter, i)
		if b.Max > 0 && d > b.Max {
			d = b.Max
		}
		delays[i] = d
	}
	return delays
}

// Fibonacci yields fib(i)*Multiplier, capped at Max when Max is positive.
type Fibonacci struct {
	Attempts   int
	Multiplier time.Duration
	Max        time.Duration
	Jitter     Jitter
}

func (b Fibonacci) Delays() []time.Duration {
	delays := make([]time.Duration, b.Attempts)
	prev, cur := int64(1), int64(1)
	for i := range delays {
		d := time.Duration(cur)*b.Multiplier + jitter(b.Jitter, i)
		if b.Max > 0 && d > b.Max {
			d = b.Max
		}
		delays[i] = d
		prev, cur = cur, prev+cur
	}
	return delays
}

func jitter(j Jitter, attempt int) time.Duration {
	if j == nil {
		return 0
	}
	return j(attempt)
}
