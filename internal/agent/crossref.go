package agent

import (
	"context"
	"math/rand/v2"

	"github.com/sells-group/newsdesk/internal/model"
)

// CrossRefResult counts how many reference indexes carried a story.
type CrossRefResult struct {
	Confirmed int
	Checked   int
}

// Score returns the confirmed share on a 0-100 scale.
func (r CrossRefResult) Score() float64 {
	if r.Checked == 0 {
		return 0
	}
	return float64(r.Confirmed) / float64(r.Checked) * 100
}

// CrossReferencer checks whether other outlets report the same story.
type CrossReferencer interface {
	CrossReference(ctx context.Context, a model.Article) (CrossRefResult, error)
}

// referenceIndex is an outlet and the chance it carries a given story.
type referenceIndex struct {
	Name string
	P    float64
}

var simulatedIndexes = []referenceIndex{
	{Name: "Google News", P: 0.7},
	{Name: "Reuters", P: 0.5},
	{Name: "AP News", P: 0.6},
}

// SimulatedIndex stands in for real outlet lookups. Each index reports the
// story as found with a fixed probability.
type SimulatedIndex struct {
	rand *lockedRand
}

// NewSimulatedIndex returns a SimulatedIndex drawing from fn, or from
// math/rand when fn is nil.
func NewSimulatedIndex(fn func() float64) *SimulatedIndex {
	if fn == nil {
		fn = rand.Float64
	}
	return &SimulatedIndex{rand: &lockedRand{fn: fn}}
}

// CrossReference implements CrossReferencer.
func (s *SimulatedIndex) CrossReference(ctx context.Context, _ model.Article) (CrossRefResult, error) {
	if err := ctx.Err(); err != nil {
		return CrossRefResult{}, err
	}
	res := CrossRefResult{Checked: len(simulatedIndexes)}
	for _, idx := range simulatedIndexes {
		if s.rand.Float64() < idx.P {
			res.Confirmed++
		}
	}
	return res, nil
}
