package domain

import (
	"strings"
	"testing"
)

func sampleBundle() *SeedBundle {
	return NewSeedBundle(
		[]SeedDefinition{
			{EntityID: "P002", EntityName: "البعد البدني", ChunkID: "d2", Text: "physical"},
			{EntityID: "P001", EntityName: "البعد الروحي", Aliases: []string{"Spiritual"}, ChunkID: "d1", Text: "spiritual"},
			{EntityID: "P003", EntityName: "Social", ChunkID: "d3", Text: "social"},
		},
		[]SeedEdge{
			{EdgeID: 9, FromID: "P003", ToID: "P001", Relation: "SUPPORTS", Justification: "q9"},
			{EdgeID: 2, FromID: "P001", ToID: "P002", Relation: "ENABLES", Justification: "q2"},
			{EdgeID: 5, FromID: "P003", ToID: "P003", Relation: "SELF", Justification: "q5"},
		},
		&SeedPolicy{ChunkID: "pol", Text: "policy"},
	)
}

func TestNewSeedBundleOrdering(t *testing.T) {
	b := sampleBundle()
	var keys []string
	for _, p := range b.AllPackets() {
		keys = append(keys, p.Key)
	}
	want := "def:P001,def:P002,def:P003,edge:2,edge:5,edge:9,policy"
	if got := strings.Join(keys, ","); got != want {
		t.Errorf("packet order = %s, want %s", got, want)
	}
}

func TestNewSeedBundleCopiesInputs(t *testing.T) {
	defs := []SeedDefinition{{EntityID: "B"}, {EntityID: "A"}}
	policy := &SeedPolicy{Text: "p"}
	b := NewSeedBundle(defs, nil, policy)
	if defs[0].EntityID != "B" {
		t.Error("caller slice was reordered")
	}
	policy.Text = "changed"
	if b.Policy.Text != "p" {
		t.Error("bundle shares the caller's policy")
	}
}

func TestFingerprintIgnoresLoadTime(t *testing.T) {
	a, b := sampleBundle(), sampleBundle()
	b.LoadedAt = b.LoadedAt.Add(3600e9)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint depends on load time")
	}
	b.Definitions[0].Text = "changed"
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("fingerprint did not change with content")
	}
}

func TestMentionedEntities(t *testing.T) {
	b := sampleBundle()
	got := b.MentionedEntities("ما العلاقة بين البعد الروحي و SOCIAL؟")
	if !got["P001"] || !got["P003"] || got["P002"] {
		t.Errorf("unexpected mentions %v", got)
	}
	if len(b.MentionedEntities("spiritual growth")) != 1 {
		t.Error("alias match is case-insensitive")
	}
	if len(b.MentionedEntities("   ")) != 0 {
		t.Error("blank question mentions nothing")
	}
}

func TestSubset(t *testing.T) {
	sub := sampleBundle().Subset(map[string]bool{"P002": true})
	if len(sub.Definitions) != 1 || sub.Definitions[0].EntityID != "P002" {
		t.Fatalf("unexpected definitions %+v", sub.Definitions)
	}
	if len(sub.CrossEdges) != 1 || sub.CrossEdges[0].EdgeID != 2 {
		t.Fatalf("unexpected edges %+v", sub.CrossEdges)
	}
	if sub.Policy == nil {
		t.Error("policy item is always kept")
	}
}

func TestEdgePlaceholder(t *testing.T) {
	if got := EdgePlaceholder("ENABLES", "P001", "P002"); got != "ENABLES(P001→P002)" {
		t.Errorf("got %s", got)
	}
}

func TestNormalizeQuestion(t *testing.T) {
	if got := NormalizeQuestion("  Ｈｅｌｌｏ\t WORLD "); got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestCandidateSourceKey(t *testing.T) {
	if (Candidate{ChunkID: "c", SourceDocID: "d"}).SourceKey() != "d" {
		t.Error("doc id wins")
	}
	if (Candidate{ChunkID: "c"}).SourceKey() != "c" {
		t.Error("falls back to chunk id")
	}
}
