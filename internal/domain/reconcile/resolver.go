// Package reconcile matches transactions extracted from a bank or card
// statement against the transactions already recorded in a ledger.
//
// A run has four steps:
//   - Normalize projects imported and ledger records into Candidates
//   - a Strategy pairs candidates using Scorer totals (greedy by default)
//   - BuildReport aggregates the resulting Partition
//   - DefaultSelection pre-selects the imported candidates that look new
//
// Example usage:
//
//	cfg := reconcile.DefaultConfig()
//	norm := reconcile.Normalize(imported, ledger)
//	partition := reconcile.Resolve(norm.Imported, norm.Ledger, cfg)
//	report := reconcile.BuildReport(partition, cfg)
//	selection := reconcile.DefaultSelection(partition)
//
// Everything in this package is request scoped: no state survives a call.
package reconcile

import (
	"fmt"
)

// Strategy assigns imported candidates to ledger candidates.
type Strategy interface {
	Name() string
	Assign(imported, ledger []Candidate, scorer *Scorer) Partition
}

// StrategyFor returns the strategy registered under name.
// The empty name selects Greedy.
func StrategyFor(name string) (Strategy, error) {
	switch name {
	case "", StrategyGreedy:
		return Greedy{}, nil
	case StrategyOptimal:
		return Optimal{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Resolve partitions the candidates using the strategy named in cfg.
// An unknown strategy name falls back to Greedy; use Config.Validate to
// reject it up front.
func Resolve(imported, ledger []Candidate, cfg Config) Partition {
	strategy, err := StrategyFor(cfg.Strategy)
	if err != nil {
		strategy = Greedy{}
	}
	return strategy.Assign(imported, ledger, NewScorer(cfg))
}

// Greedy walks the imported list in order and gives each imported candidate
// the best still-available ledger candidate. An earlier imported candidate
// can claim a ledger entry that a later one would have scored higher on.
type Greedy struct{}

// Name implements Strategy.
func (Greedy) Name() string { return StrategyGreedy }

// Assign implements Strategy.
func (Greedy) Assign(imported, ledger []Candidate, scorer *Scorer) Partition {
	p := Partition{
		Matched:      make([]MatchedPair, 0),
		ImportedOnly: make([]Candidate, 0),
		LedgerOnly:   make([]Candidate, 0),
	}

	available := make(map[string]struct{}, len(ledger))
	for _, l := range ledger {
		available[l.ID] = struct{}{}
	}

	for _, imp := range imported {
		bestIdx := -1
		var bestScore MatchScore

		for j, l := range ledger {
			if _, ok := available[l.ID]; !ok {
				continue
			}
			score := scorer.Score(imp, l)
			if !scorer.IsCandidate(score) {
				continue
			}
			// strictly greater keeps the first ledger entry on ties
			if bestIdx < 0 || score.Total > bestScore.Total {
				bestIdx = j
				bestScore = score
			}
		}

		if bestIdx < 0 {
			p.ImportedOnly = append(p.ImportedOnly, imp)
			continue
		}

		delete(available, ledger[bestIdx].ID)
		p.Matched = append(p.Matched, MatchedPair{
			Imported: imp,
			Ledger:   ledger[bestIdx],
			Score:    bestScore,
		})
	}

	for _, l := range ledger {
		if _, ok := available[l.ID]; ok {
			p.LedgerOnly = append(p.LedgerOnly, l)
		}
	}

	return p
}

// Validate checks that p covers every input candidate exactly once and that
// no candidate appears in more than one pair.
func (p Partition) Validate(imported, ledger []Candidate) error {
	if err := coverage(OriginImported, imported, p.importedSide()); err != nil {
		return err
	}
	return coverage(OriginLedger, ledger, p.ledgerSide())
}

func (p Partition) importedSide() []string {
	ids := make([]string, 0, len(p.Matched)+len(p.ImportedOnly))
	for _, m := range p.Matched {
		ids = append(ids, m.Imported.ID)
	}
	for _, c := range p.ImportedOnly {
		ids = append(ids, c.ID)
	}
	return ids
}

func (p Partition) ledgerSide() []string {
	ids := make([]string, 0, len(p.Matched)+len(p.LedgerOnly))
	for _, m := range p.Matched {
		ids = append(ids, m.Ledger.ID)
	}
	for _, c := range p.LedgerOnly {
		ids = append(ids, c.ID)
	}
	return ids
}

func coverage(origin Origin, input []Candidate, got []string) error {
	if len(got) != len(input) {
		return fmt.Errorf("%s side: partition holds %d candidates, input has %d", origin, len(got), len(input))
	}
	want := make(map[string]bool, len(input))
	for _, c := range input {
		want[c.ID] = true
	}
	seen := make(map[string]bool, len(got))
	for _, id := range got {
		if !want[id] {
			return fmt.Errorf("%s side: unexpected id %q in partition", origin, id)
		}
		if seen[id] {
			return fmt.Errorf("%s side: id %q appears more than once", origin, id)
		}
		seen[id] = true
	}
	return nil
}
