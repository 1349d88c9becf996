package domain

import "strings"

// Intent classifies the user's question. The set is closed: anything the
// classifier emits that is not listed here parses to IntentUnknown.
type Intent int

const (
	IntentUnknown Intent = iota

	IntentGlobalSynthesis
	IntentNetworkSynthesis
	IntentSynthesis
	IntentComparison

	IntentDefinition
	IntentPillarDefinition
	IntentSimpleLookup
	IntentGreeting
	IntentOutOfScope

	IntentCrossPillar
	IntentCrossPillarPath
	IntentRelationship
	IntentEntityRelation

	IntentGuidanceFrameworkChat
)

// RerankPolicy is the gating arm attached to each intent.
type RerankPolicy int

const (
	PolicyDefault RerankPolicy = iota
	PolicyAlways
	PolicyNever
	PolicyConditional
	PolicyHardOff
)

type intentInfo struct {
	name   string
	policy RerankPolicy
}

var intents = map[Intent]intentInfo{
	IntentGlobalSynthesis:  {"global_synthesis", PolicyAlways},
	IntentNetworkSynthesis: {"network_synthesis", PolicyAlways},
	IntentSynthesis:        {"synthesis", PolicyAlways},
	IntentComparison:       {"comparison", PolicyAlways},

	// These regress under reranking in evaluation runs.
	IntentDefinition:       {"definition", PolicyNever},
	IntentPillarDefinition: {"pillar_definition", PolicyNever},
	IntentSimpleLookup:     {"simple_lookup", PolicyNever},
	IntentGreeting:         {"greeting", PolicyNever},
	IntentOutOfScope:       {"out_of_scope", PolicyNever},

	IntentCrossPillar:     {"cross_pillar", PolicyConditional},
	IntentCrossPillarPath: {"cross_pillar_path", PolicyConditional},
	IntentRelationship:    {"relationship", PolicyConditional},
	IntentEntityRelation:  {"entity_relation", PolicyConditional},

	IntentGuidanceFrameworkChat: {"guidance_framework_chat", PolicyHardOff},
}

var intentsByName = func() map[string]Intent {
	m := make(map[string]Intent, len(intents))
	for i, info := range intents {
		m[info.name] = i
	}
	return m
}()

// ParseIntent maps a classifier label to an Intent. Matching is exact after trimming.
func ParseIntent(s string) Intent {
	if i, ok := intentsByName[strings.TrimSpace(s)]; ok {
		return i
	}
	return IntentUnknown
}

func (i Intent) String() string {
	if info, ok := intents[i]; ok {
		return info.name
	}
	return "unknown"
}

func (i Intent) Policy() RerankPolicy {
	if info, ok := intents[i]; ok {
		return info.policy
	}
	return PolicyDefault
}

// IntentsWithPolicy lists intents gated by p, in declaration order.
func IntentsWithPolicy(p RerankPolicy) []Intent {
	var out []Intent
	for i := IntentUnknown + 1; i <= IntentGuidanceFrameworkChat; i++ {
		if i.Policy() == p {
			out = append(out, i)
		}
	}
	return out
}

// RerankDecision is computed fresh per request and never persisted.
type RerankDecision struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

// RetrievalSignal holds first-pass statistics in rank order (index 0 is top-1).
type RetrievalSignal struct {
	Scores  []float64 `json:"scores"`
	Sources []string  `json:"sources"`
}
