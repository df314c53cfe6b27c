package rules

import "sort"

// Filter evaluates candidate rules against the full labeled dataset,
// drops those below the precision and recall thresholds, deduplicates
// structurally equal rules and returns the survivors ranked best first.
//
// Deduplication keeps the instance with the higher precision*recall
// product; ties go to the rule with fewer predicates, then to the first
// encountered, so the result is deterministic given the input order.
func Filter(candidates []Rule, x [][]float64, y []int, precisionMin, recallMin float64) []Rule {
	type slot struct {
		rule  Rule
		order int
	}
	best := make(map[string]slot, len(candidates))
	order := make([]string, 0, len(candidates))

	for _, cand := range candidates {
		r := cand.Evaluate(x, y)
		if r.Precision < precisionMin || r.Recall < recallMin {
			continue
		}

		key := r.Key()
		cur, ok := best[key]
		if !ok {
			best[key] = slot{rule: r, order: len(order)}
			order = append(order, key)
			continue
		}
		if r.Score() > cur.rule.Score() ||
			(r.Score() == cur.rule.Score() && len(r.Predicates) < len(cur.rule.Predicates)) {
			best[key] = slot{rule: r, order: cur.order}
		}
	}

	out := make([]Rule, 0, len(order))
	for _, key := range order {
		out = append(out, best[key].rule)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score() != out[j].Score() {
			return out[i].Score() > out[j].Score()
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}
