package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Scorer computes match scores for (imported, ledger) pairs.
// It is safe for concurrent use; Score has no side effects.
type Scorer struct {
	config    Config
	epsilon   decimal.Decimal
	tolerance decimal.Decimal
}

// NewScorer creates a scorer with the given config
func NewScorer(config Config) *Scorer {
	return &Scorer{
		config:    config,
		epsilon:   decimal.NewFromFloat(config.ExactAmountEpsilon),
		tolerance: decimal.NewFromFloat(config.AmountTolerancePercent),
	}
}

// Config returns the configuration the scorer was built with.
func (s *Scorer) Config() Config {
	return s.config
}

// Score rates how likely imported and ledger describe the same transaction.
// Amount, date and description each contribute at most one tier; reasons are
// listed in table order.
func (s *Scorer) Score(imported, ledger Candidate) MatchScore {
	w := s.config.Weights
	score := MatchScore{Reasons: make([]string, 0, 4)}

	add := func(points int, reason string) {
		if points <= 0 {
			return
		}
		score.Total += points
		score.Reasons = append(score.Reasons, reason)
	}

	switch s.amountTier(imported.Amount, ledger.Amount) {
	case tierExact:
		add(w.ExactAmount, ReasonExactAmount)
	case tierClose:
		add(w.SimilarAmount, ReasonSimilarAmount)
	}

	switch s.dateTier(imported, ledger) {
	case tierExact:
		add(w.SameDay, ReasonSameDay)
	case tierClose:
		add(w.CloseDate, ReasonCloseDate)
	}

	switch descriptionTier(imported.Description, ledger.Description) {
	case tierExact:
		add(w.SameDescription, ReasonSameDescription)
	case tierClose:
		add(w.SimilarDescription, ReasonSimilarDescription)
	}

	if imported.Direction != DirectionNone && imported.Direction == ledger.Direction {
		add(w.SameDirection, ReasonSameDirection)
	}

	score.Band = s.config.BandFor(score.Total)
	return score
}

// IsCandidate reports whether a score reaches the match threshold.
func (s *Scorer) IsCandidate(score MatchScore) bool {
	return score.Total >= s.config.MatchThreshold
}

type tier int

const (
	tierNone tier = iota
	tierClose
	tierExact
)

// amountTier compares magnitudes. The relative difference is taken against
// the larger amount so the result does not depend on argument order.
func (s *Scorer) amountTier(a, b decimal.Decimal) tier {
	diff := a.Sub(b).Abs()
	if diff.LessThan(s.epsilon) {
		return tierExact
	}

	larger := decimal.Max(a.Abs(), b.Abs())
	if larger.IsZero() {
		return tierNone
	}
	if diff.Div(larger).LessThanOrEqual(s.tolerance) {
		return tierClose
	}
	return tierNone
}

func (s *Scorer) dateTier(a, b Candidate) tier {
	days := daysBetween(a, b)
	switch {
	case days == 0:
		return tierExact
	case days <= s.config.DateProximityDays:
		return tierClose
	default:
		return tierNone
	}
}

// daysBetween counts whole calendar days between two candidates.
func daysBetween(a, b Candidate) int {
	ay, am, ad := a.OccurredOn.Date()
	by, bm, bd := b.OccurredOn.Date()
	ta := civilDays(ay, int(am), ad)
	tb := civilDays(by, int(bm), bd)
	if ta > tb {
		return ta - tb
	}
	return tb - ta
}

// civilDays converts a calendar date to a day count, independent of zone and DST.
func civilDays(y, m, d int) int {
	if m <= 2 {
		y--
		m += 12
	}
	return 365*y + y/4 - y/100 + y/400 + (153*(m-3)+2)/5 + d
}

func descriptionTier(a, b string) tier {
	ca := CanonicalDescription(a)
	cb := CanonicalDescription(b)
	if ca == "" || cb == "" {
		return tierNone
	}
	if ca == cb {
		return tierExact
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return tierClose
	}
	return tierNone
}
