// Package optim tunes controller gains by exhaustive grid search over
// the stability score.
package optim

import (
	"context"
	"math"

	"github.com/san-kum/bipedsim/internal/log"
)

// Evaluate runs one candidate parameter set and returns its score.
// Higher is better. Implementations typically build a controller from
// the parameters, run a session and return the stability score.
type Evaluate func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch builds a search over the cartesian product of the given
// value ranges, one range per parameter name.
func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search evaluates every grid point and returns the best parameter set
// and its score. Candidates that fail to evaluate are skipped.
// Cancellation stops the sweep and returns the best found so far.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate) (map[string]float64, float64, error) {
	best := math.Inf(-1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), eval, &best, &bestParams)

	if err := ctx.Err(); err != nil {
		return bestParams, best, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval Evaluate,
	best *float64,
	bestParams *map[string]float64,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		score, err := eval(ctx, current)
		if err != nil {
			log.Debug("candidate failed", "params", current, "err", err)
			return
		}
		if score > *best {
			*best = score
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
			log.Debug("new best", "score", score, "params", *bestParams)
		}
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val

		g.searchRecursive(ctx, depth+1, next, eval, best, bestParams)
	}
}

// Candidates returns the total number of grid points.
func (g *GridSearch) Candidates() int {
	total := 1
	for _, r := range g.ranges {
		total *= len(r)
	}
	if len(g.ranges) == 0 {
		return 0
	}
	return total
}
