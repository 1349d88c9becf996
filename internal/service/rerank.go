package service

import (
	"fmt"
	"strings"

	"github.com/Harshitk-cp/groundwork/internal/domain"
)

const (
	ReasonForceOff                = "force_off"
	ReasonForceOn                 = "force_on"
	ReasonModeNaturalChat         = "mode_natural_chat"
	ReasonIntentGuidanceChat      = "intent_guidance_chat"
	ReasonConditionalTriggered    = "conditional_triggered"
	ReasonConditionalNotTriggered = "conditional_not_triggered"
	ReasonDefaultOff              = "default_off"

	reasonAlwaysPrefix = "always_rerank_intent_"
	reasonNeverPrefix  = "no_rerank_intent_"

	ModeNaturalChat = "natural_chat"
)

// QualityThresholds drive the conditional band of the gate.
type QualityThresholds struct {
	MinTop1         float64
	MinMeanTopK     float64
	TopK            int
	MinDistinctSrcs int
}

func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinTop1:         0.6,
		MinMeanTopK:     0.4,
		TopK:            5,
		MinDistinctSrcs: 2,
	}
}

// RerankGate decides per request whether the second retrieval pass runs.
// It holds no mutable state and is safe for concurrent use.
type RerankGate struct {
	thresholds QualityThresholds
}

func NewRerankGate() *RerankGate {
	return &RerankGate{thresholds: DefaultQualityThresholds()}
}

// NewRerankGateWithThresholds uses t, with non-positive window sizes
// replaced by their defaults.
func NewRerankGateWithThresholds(t QualityThresholds) *RerankGate {
	def := DefaultQualityThresholds()
	if t.TopK <= 0 {
		t.TopK = def.TopK
	}
	if t.MinDistinctSrcs <= 0 {
		t.MinDistinctSrcs = def.MinDistinctSrcs
	}
	return &RerankGate{thresholds: t}
}

// RerankInput is everything the gate looks at.
type RerankInput struct {
	Intent   string
	Signal   domain.RetrievalSignal
	ForceOn  bool
	ForceOff bool
	Mode     string
}

// DecideRerank is the request-pipeline entry point with default thresholds.
func DecideRerank(intent string, scores []float64, sources []string, forceOn, forceOff bool, mode string) (bool, string) {
	d := NewRerankGate().Decide(RerankInput{
		Intent:   intent,
		Signal:   domain.RetrievalSignal{Scores: scores, Sources: sources},
		ForceOn:  forceOn,
		ForceOff: forceOff,
		Mode:     mode,
	})
	return d.Enabled, d.Reason
}

// ExplainRerank is the diagnostic companion of DecideRerank.
func ExplainRerank(intent string, scores []float64, sources []string, forceOn, forceOff bool, mode string) string {
	return NewRerankGate().Explain(RerankInput{
		Intent:   intent,
		Signal:   domain.RetrievalSignal{Scores: scores, Sources: sources},
		ForceOn:  forceOn,
		ForceOff: forceOff,
		Mode:     mode,
	})
}

// Decide evaluates the rules top to bottom; the first match wins.
func (g *RerankGate) Decide(in RerankInput) domain.RerankDecision {
	if in.ForceOff {
		return domain.RerankDecision{Enabled: false, Reason: ReasonForceOff}
	}
	if in.ForceOn {
		return domain.RerankDecision{Enabled: true, Reason: ReasonForceOn}
	}
	if isNaturalChat(in.Mode) {
		return domain.RerankDecision{Enabled: false, Reason: ReasonModeNaturalChat}
	}

	intent := domain.ParseIntent(in.Intent)
	switch intent.Policy() {
	case domain.PolicyHardOff:
		return domain.RerankDecision{Enabled: false, Reason: ReasonIntentGuidanceChat}
	case domain.PolicyAlways:
		return domain.RerankDecision{Enabled: true, Reason: reasonAlwaysPrefix + intent.String()}
	case domain.PolicyNever:
		return domain.RerankDecision{Enabled: false, Reason: reasonNeverPrefix + intent.String()}
	case domain.PolicyConditional:
		if triggered, _ := g.qualityTrigger(in.Signal); triggered {
			return domain.RerankDecision{Enabled: true, Reason: ReasonConditionalTriggered}
		}
		return domain.RerankDecision{Enabled: false, Reason: ReasonConditionalNotTriggered}
	default:
		return domain.RerankDecision{Enabled: false, Reason: ReasonDefaultOff}
	}
}

// Explain renders the reasoning behind a decision for diagnostics. It
// recomputes the triggers but never changes what Decide returns.
func (g *RerankGate) Explain(in RerankInput) string {
	d := g.Decide(in)
	verdict := "off"
	if d.Enabled {
		verdict = "on"
	}

	switch d.Reason {
	case ReasonForceOff, ReasonForceOn:
		return fmt.Sprintf("rerank %s: forced by caller", verdict)
	case ReasonModeNaturalChat:
		return "rerank off: natural chat mode is never reranked"
	case ReasonIntentGuidanceChat:
		return "rerank off: guidance framework chat is never reranked"
	case ReasonDefaultOff:
		return fmt.Sprintf("rerank off: intent %q has no rerank policy", strings.TrimSpace(in.Intent))
	case ReasonConditionalTriggered, ReasonConditionalNotTriggered:
		_, why := g.qualityTrigger(in.Signal)
		return fmt.Sprintf("rerank %s: %s", verdict, why)
	}

	intent := domain.ParseIntent(in.Intent)
	if d.Enabled {
		return fmt.Sprintf("rerank on: intent %s benefits from reranking", intent)
	}
	return fmt.Sprintf("rerank off: intent %s regresses under reranking", intent)
}

// qualityTrigger checks the first-pass signal in order; any match turns rerank on.
func (g *RerankGate) qualityTrigger(sig domain.RetrievalSignal) (bool, string) {
	t := g.thresholds
	if len(sig.Scores) == 0 {
		return true, "no retrieval scores available"
	}

	top1 := sig.Scores[0]
	if top1 < t.MinTop1 {
		return true, fmt.Sprintf("top-1 score %.3f below %.2f", top1, t.MinTop1)
	}

	n := min(len(sig.Scores), t.TopK)
	var sum float64
	for _, s := range sig.Scores[:n] {
		sum += s
	}
	mean := sum / float64(n)
	if mean < t.MinMeanTopK {
		return true, fmt.Sprintf("mean top-%d score %.3f below %.2f", n, mean, t.MinMeanTopK)
	}

	distinct := distinctSources(sig.Sources, t.TopK)
	if distinct < t.MinDistinctSrcs {
		return true, fmt.Sprintf("%d distinct sources in top-%d, need %d", distinct, t.TopK, t.MinDistinctSrcs)
	}

	return false, fmt.Sprintf("first pass is strong (top-1 %.3f, mean %.3f, %d sources)", top1, mean, distinct)
}

func distinctSources(sources []string, k int) int {
	seen := make(map[string]struct{}, k)
	for i, s := range sources {
		if i >= k {
			break
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seen[s] = struct{}{}
	}
	return len(seen)
}

func isNaturalChat(mode string) bool {
	return strings.EqualFold(strings.TrimSpace(mode), ModeNaturalChat)
}
