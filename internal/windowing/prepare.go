package windowing

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated tokens for included items only.
// - Budget: the input token budget used.
// - Included: number of items included.
// - Skipped: total items minus Included.
// - OverBudgetNewest: true when the newest single item alone exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	Included         int
	Skipped          int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the longest suffix of items (oldest→newest) whose
// summed cost fits within budget.
//
// Rules:
// - Include items scanning newest→oldest while total ≤ budget; stop at the first one that does not fit.
// - Never drop from the middle or the end: the result is always items[k:] for some k.
// - If the newest item alone exceeds budget, return it alone and set OverBudgetNewest.
// - An empty input yields an empty window.
func PrepareSendWindow[T any](items []T, budget int, cost func(T) int) ([]T, Stats) {
	if len(items) == 0 {
		return nil, Stats{Budget: budget}
	}

	newest := len(items) - 1
	if c := cost(items[newest]); c > budget {
		return items[newest:], Stats{
			Total:            c,
			Budget:           budget,
			Included:         1,
			Skipped:          newest,
			OverBudgetNewest: true,
		}
	}

	total := 0
	start := len(items) // exclusive sentinel; lowered as items are included
	for i := newest; i >= 0; i-- {
		c := cost(items[i])
		if total+c > budget {
			break
		}
		total += c
		start = i
	}

	return items[start:], Stats{
		Total:    total,
		Budget:   budget,
		Included: len(items) - start,
		Skipped:  start,
	}
}

// Cost sums the estimated cost of items.
func Cost[T any](items []T, cost func(T) int) int {
	total := 0
	for _, it := range items {
		total += cost(it)
	}
	return total
}
