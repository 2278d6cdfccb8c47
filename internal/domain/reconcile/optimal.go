package reconcile

import "math"

// Optimal maximizes the summed score of all proposed pairs (Hungarian
// method) instead of resolving imported candidates one at a time. It is only
// used when a caller asks for it by name; Greedy stays the default.
type Optimal struct{}

// Name implements Strategy.
func (Optimal) Name() string { return StrategyOptimal }

// Assign implements Strategy. Matched pairs are emitted in imported input
// order, unmatched candidates in their input order.
func (Optimal) Assign(imported, ledger []Candidate, scorer *Scorer) Partition {
	p := Partition{
		Matched:      make([]MatchedPair, 0),
		ImportedOnly: make([]Candidate, 0),
		LedgerOnly:   make([]Candidate, 0),
	}

	n := max(len(imported), len(ledger))
	if n == 0 {
		return p
	}

	// cost = ceiling - score; pairs under the threshold and padding cells
	// cost the ceiling, which is the same as leaving both sides unmatched.
	ceiling := scorer.Config().Weights.Max()
	scores := make([][]MatchScore, len(imported))
	cost := make([][]int, n)
	for i := range cost {
		cost[i] = make([]int, n)
		for j := range cost[i] {
			cost[i][j] = ceiling
		}
	}
	for i, imp := range imported {
		scores[i] = make([]MatchScore, len(ledger))
		for j, l := range ledger {
			s := scorer.Score(imp, l)
			scores[i][j] = s
			if scorer.IsCandidate(s) {
				cost[i][j] = ceiling - s.Total
			}
		}
	}

	assigned := hungarian(cost)

	ledgerUsed := make([]bool, len(ledger))
	for i, imp := range imported {
		j := assigned[i]
		if j < len(ledger) && scorer.IsCandidate(scores[i][j]) {
			ledgerUsed[j] = true
			p.Matched = append(p.Matched, MatchedPair{Imported: imp, Ledger: ledger[j], Score: scores[i][j]})
			continue
		}
		p.ImportedOnly = append(p.ImportedOnly, imp)
	}
	for j, l := range ledger {
		if !ledgerUsed[j] {
			p.LedgerOnly = append(p.LedgerOnly, l)
		}
	}

	return p
}

// hungarian solves the square assignment problem for cost and returns, for
// each row, the column assigned to it.
func hungarian(cost [][]int) []int {
	n := len(cost)
	u := make([]int, n+1)
	v := make([]int, n+1)
	p := make([]int, n+1) // p[j] = row (1-based) assigned to column j
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.MaxInt
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.MaxInt
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rows := make([]int, n)
	for j := 1; j <= n; j++ {
		rows[p[j]-1] = j - 1
	}
	return rows
}
