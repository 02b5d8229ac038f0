package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mj1618/locator-cli/internal/env/target"
	"github.com/mj1618/locator-cli/internal/output"
	"github.com/mj1618/locator-cli/internal/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <id>...",
	Short: "Find stored objects in an environment, healing broken locators",
	Long: `Resolve one or more stored objects against a snapshot, a web page or a
desktop application. The primary locator is tried first, then the fallbacks,
then healing heuristics derived from the captured attributes. Every healed
resolution is logged and counts towards update suggestions.

Exits non-zero when any object could not be found.

Examples:
  locator-cli resolve 3f2c... --snapshot page.yaml
  locator-cli resolve 3f2c... 9a1b... --url http://localhost:3000
  locator-cli resolve 3f2c... --app Notes --no-heal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().Bool("no-heal", false, "Disable self-healing for this run")
	addTargetFlags(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	noHeal, _ := cmd.Flags().GetBool("no-heal")

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	opened, err := target.Open(cmd.Context(), cfg, getTargetFlags(cmd))
	if err != nil {
		return err
	}
	defer opened.Close()

	results, err := svc.ResolveMany(cmd.Context(), args, opened.Accessor, !noHeal)
	if err != nil {
		return err
	}
	out := make([]service.ResolveResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = service.NewResolveResult(args[i], res)
		if !res.Success {
			failed++
			log.Warn().Str("id", args[i]).Msg("object not resolved")
		}
	}
	if len(out) == 1 {
		err = output.Print(out[0])
	} else {
		err = output.Print(out)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d objects not resolved", failed, len(results))
	}
	return nil
}
