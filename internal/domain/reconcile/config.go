package reconcile

import (
	"fmt"
)

// Strategy names accepted in Config.Strategy.
const (
	StrategyGreedy  = "greedy"
	StrategyOptimal = "optimal"
)

// Weights holds the points awarded by each scoring tier.
type Weights struct {
	ExactAmount        int `yaml:"exact_amount" json:"exact_amount"`
	SimilarAmount      int `yaml:"similar_amount" json:"similar_amount"`
	SameDay            int `yaml:"same_day" json:"same_day"`
	CloseDate          int `yaml:"close_date" json:"close_date"`
	SameDescription    int `yaml:"same_description" json:"same_description"`
	SimilarDescription int `yaml:"similar_description" json:"similar_description"`
	SameDirection      int `yaml:"same_direction" json:"same_direction"`
}

// Max returns the highest total a pair can reach with these weights.
func (w Weights) Max() int {
	return max(w.ExactAmount, w.SimilarAmount) +
		max(w.SameDay, w.CloseDate) +
		max(w.SameDescription, w.SimilarDescription) +
		w.SameDirection
}

// DefaultWeights returns the standard scoring table (maximum 110).
func DefaultWeights() Weights {
	return Weights{
		ExactAmount:        40,
		SimilarAmount:      20,
		SameDay:            30,
		CloseDate:          15,
		SameDescription:    30,
		SimilarDescription: 15,
		SameDirection:      10,
	}
}

// Config holds matcher configuration
type Config struct {
	MatchThreshold         int     // Minimum total for a pair to be proposed (default 50)
	DuplicateThreshold     int     // Minimum total for a "likely duplicate" (default 80)
	ReviewThreshold        int     // Floor of the medium band (default 60)
	DateProximityDays      int     // Window for the close-date tier (default 2)
	AmountTolerancePercent float64 // Relative tolerance for the similar-amount tier (default 0.01)
	ExactAmountEpsilon     float64 // Absolute difference below which amounts are exact (default 0.01)
	Weights                Weights
	Strategy               string // "greedy" (default) or "optimal"
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MatchThreshold:         50,
		DuplicateThreshold:     80,
		ReviewThreshold:        60,
		DateProximityDays:      2,
		AmountTolerancePercent: 0.01,
		ExactAmountEpsilon:     0.01,
		Weights:                DefaultWeights(),
		Strategy:               StrategyGreedy,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	maxScore := c.Weights.Max()
	if c.MatchThreshold < 0 || c.MatchThreshold > maxScore {
		return fmt.Errorf("match threshold %d out of range [0, %d]", c.MatchThreshold, maxScore)
	}
	if c.DuplicateThreshold < 0 || c.DuplicateThreshold > maxScore {
		return fmt.Errorf("duplicate threshold %d out of range [0, %d]", c.DuplicateThreshold, maxScore)
	}
	if c.ReviewThreshold > c.DuplicateThreshold {
		return fmt.Errorf("review threshold %d above duplicate threshold %d", c.ReviewThreshold, c.DuplicateThreshold)
	}
	if c.DateProximityDays < 0 {
		return fmt.Errorf("date proximity days must not be negative: %d", c.DateProximityDays)
	}
	if c.AmountTolerancePercent < 0 || c.AmountTolerancePercent >= 1 {
		return fmt.Errorf("amount tolerance %.4f out of range [0, 1)", c.AmountTolerancePercent)
	}
	if c.ExactAmountEpsilon <= 0 {
		return fmt.Errorf("exact amount epsilon must be positive: %.4f", c.ExactAmountEpsilon)
	}
	switch c.Strategy {
	case "", StrategyGreedy, StrategyOptimal:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	return nil
}

// BandFor derives the confidence band of a total.
func (c Config) BandFor(total int) Band {
	switch {
	case total >= c.DuplicateThreshold:
		return BandHigh
	case total >= c.ReviewThreshold:
		return BandMedium
	default:
		return BandLow
	}
}
