package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/locator-cli/internal/output"
	"github.com/mj1618/locator-cli/internal/service"
	"github.com/mj1618/locator-cli/internal/telemetry"
)

var healingCmd = &cobra.Command{
	Use:   "healing",
	Short: "Inspect the healing log and apply suggested locator updates",
}

var healingStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count healing events by strategy",
	Args:  cobra.NoArgs,
	RunE:  runHealingStats,
}

var healingSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "List locator updates suggested by repeated healing",
	Long: `List locators that repeatedly healed to the same replacement. A suggestion
appears once the same (object, original locator) pair healed to the same
new locator at least --min-frequency times.`,
	Args: cobra.NoArgs,
	RunE: runHealingSuggest,
}

var healingApplyCmd = &cobra.Command{
	Use:   "apply [id]",
	Short: "Promote suggested locators to primary",
	Long: `Apply the most frequent pending suggestion of one object, or of every
object with --all. The suggested locator becomes the object's primary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHealingApply,
}

var healingExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the healing event log",
	Args:  cobra.NoArgs,
	RunE:  runHealingExport,
}

func init() {
	rootCmd.AddCommand(healingCmd)
	healingCmd.AddCommand(healingStatsCmd, healingSuggestCmd, healingApplyCmd, healingExportCmd)
	healingSuggestCmd.Flags().Int("min-frequency", 0, "Minimum healing occurrences (0 = configured threshold)")
	healingApplyCmd.Flags().Int("min-frequency", 0, "Minimum healing occurrences (0 = configured threshold)")
	healingApplyCmd.Flags().Bool("all", false, "Apply every pending suggestion")
	healingExportCmd.Flags().String("format", telemetry.FormatJSON, "Export format: json, jsonl, yaml")
	healingExportCmd.Flags().String("out", "", "Write to file instead of stdout")
}

func runHealingStats(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Telemetry.Statistics(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(stats)
}

func runHealingSuggest(cmd *cobra.Command, args []string) error {
	minFrequency, _ := cmd.Flags().GetInt("min-frequency")

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	suggestions, err := svc.Suggest(cmd.Context(), minFrequency)
	if err != nil {
		return err
	}
	return output.Print(suggestions)
}

func runHealingApply(cmd *cobra.Command, args []string) error {
	minFrequency, _ := cmd.Flags().GetInt("min-frequency")
	all, _ := cmd.Flags().GetBool("all")
	if all == (len(args) == 1) {
		return fmt.Errorf("give either an object id or --all")
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !all {
		sug, chain, err := svc.ApplyForObject(cmd.Context(), args[0], minFrequency)
		if err != nil {
			return err
		}
		return output.Print(service.AppliedSuggestion{ID: args[0], Applied: *sug, Chain: chain})
	}

	suggestions, err := svc.Suggest(cmd.Context(), minFrequency)
	if err != nil {
		return err
	}
	applied := make([]service.AppliedSuggestion, 0, len(suggestions))
	done := make(map[string]bool)
	for _, sug := range suggestions {
		// Suggestions are ordered by frequency; take the first per object.
		if sug.ObjectID == "" || done[sug.ObjectID] {
			continue
		}
		chain, err := svc.ApplySuggestion(cmd.Context(), sug)
		if err != nil {
			return err
		}
		done[sug.ObjectID] = true
		applied = append(applied, service.AppliedSuggestion{ID: sug.ObjectID, Applied: sug, Chain: chain})
	}
	return output.Print(applied)
}

func runHealingExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	w := output.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return svc.Telemetry.ExportLog(cmd.Context(), w, format)
}

