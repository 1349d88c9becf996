package cli

import (
	"encoding/json"
	"fmt"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/service"
	"github.com/spf13/cobra"
)

var (
	rerankIntent   string
	rerankMode     string
	rerankScores   []float64
	rerankSources  []string
	rerankForceOn  bool
	rerankForceOff bool
	rerankJSON     bool
)

var rerankCmd = &cobra.Command{
	Use:   "rerank",
	Short: "Evaluate the rerank gate for a set of first-pass signals",
	Long: `Rerank replays the retrieval-quality gate offline. Scores are given in
first-pass rank order; sources are the document ids of the same results.

Example:
  groundctl rerank --intent cross_pillar_path --score 0.55 --score 0.5 --source doc-a --source doc-b
  groundctl rerank --intent synthesis --mode natural_chat --json`,
	Args: cobra.NoArgs,
	RunE: runRerank,
}

func init() {
	rootCmd.AddCommand(rerankCmd)

	rerankCmd.Flags().StringVar(&rerankIntent, "intent", "", "classified intent")
	rerankCmd.Flags().StringVar(&rerankMode, "mode", "", "answer mode (natural_chat disables reranking)")
	rerankCmd.Flags().Float64SliceVar(&rerankScores, "score", nil, "first-pass score, repeatable, rank order")
	rerankCmd.Flags().StringSliceVar(&rerankSources, "source", nil, "first-pass source id, repeatable, rank order")
	rerankCmd.Flags().BoolVar(&rerankForceOn, "force-on", false, "force reranking on")
	rerankCmd.Flags().BoolVar(&rerankForceOff, "force-off", false, "force reranking off")
	rerankCmd.Flags().BoolVar(&rerankJSON, "json", false, "print the decision as JSON")
}

func runRerank(cmd *cobra.Command, args []string) error {
	gate := service.NewRerankGate()
	in := service.RerankInput{
		Intent:   rerankIntent,
		Signal:   domain.RetrievalSignal{Scores: rerankScores, Sources: rerankSources},
		ForceOn:  rerankForceOn,
		ForceOff: rerankForceOff,
		Mode:     rerankMode,
	}
	d := gate.Decide(in)
	explanation := gate.Explain(in)

	out := cmd.OutOrStdout()
	if rerankJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"enabled":     d.Enabled,
			"reason":      d.Reason,
			"explanation": explanation,
		})
	}

	fmt.Fprintf(out, "enabled: %t\nreason:  %s\n%s\n", d.Enabled, d.Reason, explanation)
	return nil
}
