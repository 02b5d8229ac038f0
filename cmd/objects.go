package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/output"
	"github.com/mj1618/locator-cli/internal/service"
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "Inspect and edit the object repository",
}

var objectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored objects",
	Args:  cobra.NoArgs,
	RunE:  runObjectsList,
}

var objectsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one object with its locator chain and usage",
	Args:  cobra.ExactArgs(1),
	RunE:  runObjectsGet,
}

var objectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an object",
	Args:  cobra.ExactArgs(1),
	RunE:  runObjectsDelete,
}

var objectsSetChainCmd = &cobra.Command{
	Use:   "set-chain <id>",
	Short: "Replace an object's locator chain",
	Long: `Replace the locator chain of an object with one read from --file (YAML or
JSON list of locators). The chain is stored ordered by reliability.`,
	Args: cobra.ExactArgs(1),
	RunE: runObjectsSetChain,
}

func init() {
	rootCmd.AddCommand(objectsCmd)
	objectsCmd.AddCommand(objectsListCmd, objectsGetCmd, objectsDeleteCmd, objectsSetChainCmd)
	objectsListCmd.Flags().String("platform", "", "Filter by platform: web, desktop, mobile")
	objectsListCmd.Flags().String("tag", "", "Filter by tag")
	objectsSetChainCmd.Flags().String("file", "-", "Chain file (- for stdin)")
}

func runObjectsList(cmd *cobra.Command, args []string) error {
	platform, err := getPlatformFlag(cmd)
	if err != nil {
		return err
	}
	tag, _ := cmd.Flags().GetString("tag")

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	objects, err := svc.Objects(cmd.Context(), platform, tag)
	if err != nil {
		return err
	}
	return output.Print(service.Summaries(objects))
}

func runObjectsGet(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	obj, err := svc.Repo.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output.Print(obj)
}

func runObjectsDelete(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Repo.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output.Print(map[string]interface{}{"ok": true, "deleted": args[0]})
}

func runObjectsSetChain(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	var chain model.Chain
	if err := decodeInput(cmd, file, &chain); err != nil {
		return err
	}
	if len(chain) > 0 {
		if err := chain.Validate(); err != nil {
			return err
		}
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Repo.UpdateLocatorChain(cmd.Context(), args[0], chain); err != nil {
		return err
	}
	obj, err := svc.Repo.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output.Print(obj)
}
