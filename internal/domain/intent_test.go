package domain

import "testing"

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"comparison", IntentComparison},
		{" cross_pillar_path\n", IntentCrossPillarPath},
		{"Comparison", IntentUnknown},
		{"", IntentUnknown},
		{"guidance_framework_chat", IntentGuidanceFrameworkChat},
	}
	for _, tt := range tests {
		if got := ParseIntent(tt.in); got != tt.want {
			t.Errorf("ParseIntent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIntentRoundTrip(t *testing.T) {
	for i := IntentUnknown + 1; i <= IntentGuidanceFrameworkChat; i++ {
		if ParseIntent(i.String()) != i {
			t.Errorf("intent %d does not round-trip through %q", i, i.String())
		}
	}
	if IntentUnknown.String() != "unknown" || IntentUnknown.Policy() != PolicyDefault {
		t.Error("unknown intent must render as unknown with the default policy")
	}
}

func TestIntentsWithPolicy(t *testing.T) {
	counts := map[RerankPolicy]int{
		PolicyAlways:      4,
		PolicyNever:       5,
		PolicyConditional: 4,
		PolicyHardOff:     1,
		PolicyDefault:     0,
	}
	for p, want := range counts {
		if got := len(IntentsWithPolicy(p)); got != want {
			t.Errorf("policy %d: got %d intents, want %d", p, got, want)
		}
	}
}
