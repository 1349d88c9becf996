package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/groundwork/internal/domain"
)

const draftClaimsPrompt = `You answer questions strictly from the evidence below. Each evidence item has a chunk_id.

Write the answer as a list of short, self-contained claims. Every claim must cite at least one evidence item, and each citation must quote the evidence text EXACTLY, character for character, without paraphrasing, trimming words or fixing typos. Prefer short quotes (one sentence or less). Do not write claims the evidence does not support.

Question: %s

Evidence:
%s

Return ONLY a JSON array, no prose:
[{"text": "claim", "citations": [{"chunk_id": "id", "quote": "exact text"}]}]`

func formatEvidence(evidence []domain.EvidencePacket) string {
	var sb strings.Builder
	for _, e := range evidence {
		fmt.Fprintf(&sb, "[chunk_id=%s]\n%s\n\n", e.ChunkID, e.Text)
	}
	return sb.String()
}

func draftPrompt(question string, evidence []domain.EvidencePacket) string {
	return fmt.Sprintf(draftClaimsPrompt, question, formatEvidence(evidence))
}

// parseDrafts accepts the model's JSON array, with or without markdown fences.
func parseDrafts(raw string) ([]domain.DraftClaim, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var drafts []domain.DraftClaim
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		return nil, fmt.Errorf("parse draft claims: %w (raw: %s)", err, raw)
	}
	return drafts, nil
}
