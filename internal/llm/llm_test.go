package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDrafts(t *testing.T) {
	raw := "```json\n[{\"text\":\"Prayer anchors the day.\",\"citations\":[{\"chunk_id\":\"c1\",\"quote\":\"Prayer anchors the day.\"}]}]\n```"
	drafts, err := parseDrafts(raw)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "c1", drafts[0].Citations[0].ChunkID)

	_, err = parseDrafts("not json")
	assert.Error(t, err)
}

func TestFormatEvidence(t *testing.T) {
	out := formatEvidence([]domain.EvidencePacket{
		{ChunkID: "a", Text: "alpha"},
		{ChunkID: "b", Text: "beta"},
	})
	assert.Contains(t, out, "[chunk_id=a]\nalpha")
	assert.Contains(t, out, "[chunk_id=b]\nbeta")
}

func TestMockClient_DefaultQuotesFirstSentence(t *testing.T) {
	c := NewMockClient()
	drafts, err := c.DraftClaims(context.Background(), "q", []domain.EvidencePacket{
		{ChunkID: "c1", Text: "  Rest restores the body. Sleep is part of rest."},
		{ChunkID: "c2", Text: "   "},
		{ChunkID: "c3", Text: "الصلاة عماد الدين؟ نعم"},
	})
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Rest restores the body.", drafts[0].Citations[0].Quote)
	assert.Equal(t, "الصلاة عماد الدين؟", drafts[1].Citations[0].Quote)
	assert.Len(t, c.DraftCalls, 1)
}

func TestMockClient_Configured(t *testing.T) {
	c := NewMockClient()
	c.DraftError = errors.New("boom")
	_, err := c.DraftClaims(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestOpenAIClient_DraftClaims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float32(0), req.Temperature)
		assert.Contains(t, req.Messages[0].Content, "[chunk_id=c1]")

		content := `[{"text":"x","citations":[{"chunk_id":"c1","quote":"x"}]}]`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("k")
	c.url = srv.URL
	drafts, err := c.DraftClaims(context.Background(), "q", []domain.EvidencePacket{{ChunkID: "c1", Text: "x"}})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "x", drafts[0].Text)
}

func TestAnthropicClient_DraftClaims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": `[]`}},
		})
	}))
	defer srv.Close()

	c := NewAnthropicClient("k")
	c.url = srv.URL
	drafts, err := c.DraftClaims(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ProviderAnthropic, "")
	assert.Error(t, err)
	_, err = NewClient("gemini", "k")
	assert.Error(t, err)
	c, err := NewClient(ProviderMock, "")
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)
}
