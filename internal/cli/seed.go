package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Harshitk-cp/groundwork/internal/config"
	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/service"
	"github.com/Harshitk-cp/groundwork/internal/store"
	"github.com/spf13/cobra"
)

var (
	seedQuestion string
	seedTimeout  time.Duration
	seedJSON     bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Print the seed floor for a question",
	Long: `Seed loads the global seed bundle from the database and prints the packets
a question would receive, in prompt order, followed by the bundle fingerprint.
Two runs against the same data print the same fingerprint.

Example:
  groundctl seed
  groundctl seed --question "ما العلاقة بين البعد الروحي والبعد البدني؟"`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedQuestion, "question", "q", "", "question to scope the bundle to")
	seedCmd.Flags().DurationVar(&seedTimeout, "timeout", 30*time.Second, "load timeout")
	seedCmd.Flags().BoolVar(&seedJSON, "json", false, "print packets as JSON")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), seedTimeout)
	defer cancel()

	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := service.NewSeedService(
		service.NewSeedCache(config.SeedCacheCapacity()),
		service.NewSeedLoader(store.NewSeedStore(pool)),
		newLogger(),
	)
	b, err := svc.GetOrLoadSeedBundle(ctx, seedQuestion)
	if err != nil {
		return err
	}
	return printBundle(cmd, b)
}

func printBundle(cmd *cobra.Command, b *domain.SeedBundle) error {
	out := cmd.OutOrStdout()
	packets := b.AllPackets()
	if seedJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"fingerprint": b.Fingerprint(),
			"packets":     packets,
		})
	}

	for _, p := range packets {
		fmt.Fprintf(out, "%-18s %-24s %s\n", p.Kind, p.Key, p.Text)
	}
	fmt.Fprintf(out, "\n%d packets, fingerprint %s\n", len(packets), b.Fingerprint())
	return nil
}
