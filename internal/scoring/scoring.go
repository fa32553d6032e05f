// Package scoring summarizes the five interview criteria.
package scoring

import (
	"math"

	"interview-insights-go/internal/types"
)

const (
	MinScore = 0
	MaxScore = 10
)

// Criterion is one named rating.
type Criterion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type Summary struct {
	Average   float64   `json:"average"`
	Overall   float64   `json:"overall"`
	Weakest   Criterion `json:"weakest"`
	Strongest Criterion `json:"strongest"`
}

// Criteria lists the five criteria in a fixed order. Ties in Summarize
// resolve to the first one in this order.
func Criteria(r types.Ratings) []Criterion {
	return []Criterion{
		{Name: "clarity", Score: float64(r.Clarity)},
		{Name: "structure", Score: float64(r.Structure)},
		{Name: "confidence", Score: float64(r.Confidence)},
		{Name: "relevance", Score: float64(r.Relevance)},
		{Name: "communication", Score: float64(r.Communication)},
	}
}

// Normalize clamps every score into [0,10] and fills a zero overall rating
// with the rounded criteria average.
func Normalize(r types.Ratings) types.Ratings {
	r.Clarity = clamp(r.Clarity)
	r.Structure = clamp(r.Structure)
	r.Confidence = clamp(r.Confidence)
	r.Relevance = clamp(r.Relevance)
	r.Communication = clamp(r.Communication)
	r.OverallRating = clamp(r.OverallRating)
	if r.OverallRating == 0 {
		r.OverallRating = types.Score(round1(average(Criteria(r))))
	}
	return r
}

func Summarize(r types.Ratings) Summary {
	cs := Criteria(r)
	weakest, strongest := cs[0], cs[0]
	for _, c := range cs[1:] {
		if c.Score < weakest.Score {
			weakest = c
		}
		if c.Score > strongest.Score {
			strongest = c
		}
	}
	return Summary{
		Average:   round1(average(cs)),
		Overall:   float64(r.OverallRating),
		Weakest:   weakest,
		Strongest: strongest,
	}
}

func average(cs []Criterion) float64 {
	if len(cs) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cs {
		sum += c.Score
	}
	return sum / float64(len(cs))
}

func clamp(s types.Score) types.Score {
	switch {
	case math.IsNaN(float64(s)), s < MinScore:
		return MinScore
	case s > MaxScore:
		return MaxScore
	default:
		return s
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
