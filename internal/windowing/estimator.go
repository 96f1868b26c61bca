package windowing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petasbytes/mindbuddy/internal/metrics"
)

// Estimator approximates the token cost of a piece of text.
// Implementations must never return a negative value, so that adding a turn
// to a log can never lower its estimated cost.
type Estimator func(text string) int

// Fixed per-turn overhead for role framing; changing this requires updating the guard tests.
const turnOverhead = 4

// CharEstimator is the default deterministic estimator.
// Rules:
// - ceil(runes / 4) for the text body
// - plus a fixed per-turn overhead
func CharEstimator(text string) int {
	f := metrics.CountFeatures(text)
	return (f.Runes+3)/4 + turnOverhead
}

// WordEstimator counts whitespace-separated words and assumes ~4 tokens per 3 words.
func WordEstimator(text string) int {
	f := metrics.CountFeatures(text)
	return (f.Words*4+2)/3 + turnOverhead
}

var estimators = map[string]Estimator{
	"chars": CharEstimator,
	"words": WordEstimator,
}

// DefaultEstimatorName names the estimator used when none is configured.
const DefaultEstimatorName = "chars"

// LookupEstimator returns the named estimator. Names are case-insensitive;
// an empty name selects the default.
func LookupEstimator(name string) (Estimator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultEstimatorName
	}
	e, ok := estimators[name]
	if !ok {
		return nil, fmt.Errorf("unknown token estimator %q (known: %s)", name, strings.Join(EstimatorNames(), ", "))
	}
	return e, nil
}

// EstimatorNames lists the registered estimators in sorted order.
func EstimatorNames() []string {
	names := make([]string, 0, len(estimators))
	for n := range estimators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
