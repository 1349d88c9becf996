package llm

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Harshitk-cp/groundwork/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// With no DraftResponse set it quotes the first sentence of each evidence item.
type MockClient struct {
	DraftResponse []domain.DraftClaim
	DraftError    error

	// Call tracking for assertions
	DraftCalls []struct {
		Question string
		Evidence []domain.EvidencePacket
	}
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) DraftClaims(ctx context.Context, question string, evidence []domain.EvidencePacket) ([]domain.DraftClaim, error) {
	c.DraftCalls = append(c.DraftCalls, struct {
		Question string
		Evidence []domain.EvidencePacket
	}{question, evidence})
	if c.DraftError != nil {
		return nil, c.DraftError
	}
	if c.DraftResponse != nil {
		return c.DraftResponse, nil
	}

	out := make([]domain.DraftClaim, 0, len(evidence))
	for _, e := range evidence {
		quote := firstSentence(e.Text)
		if quote == "" {
			continue
		}
		out = append(out, domain.DraftClaim{
			Text:      quote,
			Citations: []domain.Citation{{ChunkID: e.ChunkID, Quote: quote}},
		})
	}
	return out, nil
}

func firstSentence(text string) string {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	if i := strings.IndexAny(text, ".!?؟"); i >= 0 {
		_, size := utf8.DecodeRuneInString(text[i:])
		return strings.TrimSpace(text[:i+size])
	}
	return strings.TrimSpace(text)
}
