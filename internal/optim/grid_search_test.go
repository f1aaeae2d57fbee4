package optim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestGridSearchFindsMaximum(t *testing.T) {
	gs := NewGridSearch(
		[]string{"kp", "kd"},
		[][]float64{
			{0.1, 0.3, 0.5, 0.7},
			{0.01, 0.05, 0.1},
		},
	)

	// Peak at kp=0.5, kd=0.05.
	eval := func(ctx context.Context, p map[string]float64) (float64, error) {
		return 100 - 50*math.Abs(p["kp"]-0.5) - 200*math.Abs(p["kd"]-0.05), nil
	}

	params, score, err := gs.Search(context.Background(), eval)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if params["kp"] != 0.5 || params["kd"] != 0.05 {
		t.Errorf("best params = %v, want kp=0.5 kd=0.05", params)
	}
	if score != 100 {
		t.Errorf("best score = %g, want 100", score)
	}
}

func TestGridSearchSkipsFailedCandidates(t *testing.T) {
	gs := NewGridSearch([]string{"kp"}, [][]float64{{1, 2, 3}})

	eval := func(ctx context.Context, p map[string]float64) (float64, error) {
		if p["kp"] == 3 {
			return 0, errors.New("diverged")
		}
		return p["kp"], nil
	}

	params, score, err := gs.Search(context.Background(), eval)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if params["kp"] != 2 || score != 2 {
		t.Errorf("best = %v score %g, want kp=2 score 2", params, score)
	}
}

func TestGridSearchCancellation(t *testing.T) {
	gs := NewGridSearch([]string{"kp"}, [][]float64{{1, 2, 3, 4, 5}})

	ctx, cancel := context.WithCancel(context.Background())
	evals := 0
	eval := func(ctx context.Context, p map[string]float64) (float64, error) {
		evals++
		if evals == 2 {
			cancel()
		}
		return p["kp"], nil
	}

	_, _, err := gs.Search(ctx, eval)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if evals > 2 {
		t.Errorf("search kept evaluating after cancellation: %d evals", evals)
	}
}

func TestGridSearchCandidates(t *testing.T) {
	gs := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {1, 2, 3}})
	if got := gs.Candidates(); got != 6 {
		t.Errorf("candidates = %d, want 6", got)
	}
}
