package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/output"
	"github.com/mj1618/locator-cli/internal/service"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build a ranked locator chain from captured attributes",
	Long: `Read captured element attributes (YAML or JSON) and print the locator chain
that would be stored for them, most reliable first. Nothing is stored.

Examples:
  locator-cli extract --file button.yaml
  echo '{"tag":"button","id":"save","text":"Save"}' | locator-cli extract`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("file", "-", "Attributes file (- for stdin)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	var attrs model.CapturedAttributes
	if err := decodeInput(cmd, file, &attrs); err != nil {
		return err
	}
	extractor, err := service.NewExtractor(cfg.Extract, nil)
	if err != nil {
		return err
	}
	return output.Print(extractor.Extract(attrs))
}
