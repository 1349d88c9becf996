package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/Harshitk-cp/groundwork/internal/domain"
)

// MockReranker scores by query-token overlap. Err, when set, is returned
// from every call.
type MockReranker struct {
	Err   error
	Calls int
}

func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

func (m *MockReranker) ModelName() string {
	return "mock-overlap"
}

func (m *MockReranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.Candidate, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}

	terms := strings.Fields(domain.NormalizeQuestion(query))
	out := append([]domain.Candidate(nil), candidates...)
	for i := range out {
		text := domain.NormalizeQuestion(out[i].Text)
		var hits int
		for _, t := range terms {
			if strings.Contains(text, t) {
				hits++
			}
		}
		if len(terms) > 0 {
			out[i].Score = float32(hits) / float32(len(terms))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
