// Package formula holds the pure numeric formulas behind the coaching engines:
// one-rep-max strategies, MET and macro tiers, and mechanical work.
package formula

import (
	"math"
	"sort"
)

// Sentinel methods reported when no strategy applies.
const (
	MethodNone       = "N/A"
	MethodActualLift = "Actual Lift"
	MethodOutOfRange = "Out of Range"
)

// MaxEstimableReps is the highest rep count any strategy is trusted with.
const MaxEstimableReps = 30

// Strategy estimates a one-rep max from a submaximal set.
type Strategy struct {
	Name     string
	Estimate func(weight float64, reps int) float64
}

// Epley: weight × (1 + reps/30).
var Epley = Strategy{
	Name: "Epley",
	Estimate: func(weight float64, reps int) float64 {
		return weight * (1 + float64(reps)/30)
	},
}

// Brzycki: weight × 36 / (37 − reps). Undefined at 37 reps and above.
var Brzycki = Strategy{
	Name: "Brzycki",
	Estimate: func(weight float64, reps int) float64 {
		if reps >= 37 {
			return 0
		}
		return weight * 36 / float64(37-reps)
	},
}

// Wathan: 100 × weight / (48.8 + 53.8 × e^(−0.075 × reps)).
var Wathan = Strategy{
	Name: "Wathan",
	Estimate: func(weight float64, reps int) float64 {
		return 100 * weight / (48.8 + 53.8*math.Exp(-0.075*float64(reps)))
	},
}

type repRange struct {
	min, max int
	strategy Strategy
}

// OneRepMax is an estimate and the method that produced it.
type OneRepMax struct {
	Value  float64 `json:"value"`
	Method string  `json:"method"`
}

// OneRepMaxEstimator dispatches to a strategy by rep count.
type OneRepMaxEstimator struct {
	ranges []repRange
}

// DefaultOneRepMax uses Epley up to 5 reps, Brzycki for 6-10 and Wathan above.
var DefaultOneRepMax = OneRepMaxEstimator{ranges: []repRange{
	{min: 2, max: 5, strategy: Epley},
	{min: 6, max: 10, strategy: Brzycki},
	{min: 11, max: MaxEstimableReps, strategy: Wathan},
}}

// RepRange describes which strategy handles a band of rep counts.
type RepRange struct {
	MinReps  int    `json:"min_reps"`
	MaxReps  int    `json:"max_reps"`
	Strategy string `json:"strategy"`
}

// Table lists the estimator's rep ranges in ascending order.
func (e OneRepMaxEstimator) Table() []RepRange {
	out := make([]RepRange, len(e.ranges))
	for i, r := range e.ranges {
		out[i] = RepRange{MinReps: r.min, MaxReps: r.max, Strategy: r.strategy.Name}
	}
	return out
}

// EstimateOneRepMax estimates with the default strategy table.
func EstimateOneRepMax(weight float64, reps int) OneRepMax {
	return DefaultOneRepMax.Estimate(weight, reps)
}

// WithStrategy returns a copy of e in which s handles minReps..maxReps.
// Existing ranges are clipped around the new one.
func (e OneRepMaxEstimator) WithStrategy(minReps, maxReps int, s Strategy) OneRepMaxEstimator {
	if minReps > maxReps {
		return e
	}
	out := make([]repRange, 0, len(e.ranges)+2)
	for _, r := range e.ranges {
		if r.max < minReps || r.min > maxReps {
			out = append(out, r)
			continue
		}
		if r.min < minReps {
			out = append(out, repRange{min: r.min, max: minReps - 1, strategy: r.strategy})
		}
		if r.max > maxReps {
			out = append(out, repRange{min: maxReps + 1, max: r.max, strategy: r.strategy})
		}
	}
	out = append(out, repRange{min: minReps, max: maxReps, strategy: s})
	sort.Slice(out, func(i, j int) bool { return out[i].min < out[j].min })
	return OneRepMaxEstimator{ranges: out}
}

// Estimate returns the estimated one-rep max rounded to the nearest 0.5.
// Invalid input yields the "N/A" sentinel, a single rep is returned as is,
// and sets above MaxEstimableReps are "Out of Range".
func (e OneRepMaxEstimator) Estimate(weight float64, reps int) OneRepMax {
	if weight <= 0 || reps <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return OneRepMax{Value: 0, Method: MethodNone}
	}
	if reps == 1 {
		return OneRepMax{Value: weight, Method: MethodActualLift}
	}
	if reps > MaxEstimableReps {
		return OneRepMax{Value: 0, Method: MethodOutOfRange}
	}
	for _, r := range e.ranges {
		if reps >= r.min && reps <= r.max {
			return OneRepMax{Value: RoundHalf(r.strategy.Estimate(weight, reps)), Method: r.strategy.Name}
		}
	}
	return OneRepMax{Value: 0, Method: MethodOutOfRange}
}

// RoundHalf rounds to the nearest 0.5.
func RoundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}
