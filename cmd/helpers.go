package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/locator-cli/internal/env/target"
	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/service"
)

// openService opens storage and telemetry for one command run. The caller
// must Close the returned service.
func openService(cmd *cobra.Command) (*service.Service, error) {
	svc, err := service.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return svc, nil
}

// addTargetFlags registers the flags that point a command at an environment.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("env", "", "Environment: snapshot, web, desktop (default: inferred from the other flags)")
	cmd.Flags().String("snapshot", "", "Snapshot document (YAML or JSON)")
	cmd.Flags().String("url", "", "Web page to open in a browser")
	cmd.Flags().String("control-url", "", "DevTools URL of a running browser (default: launch one)")
	cmd.Flags().String("tree", "", "Dumped desktop accessibility tree (JSON)")
	cmd.Flags().String("app", "", "Desktop application name")
	cmd.Flags().String("window", "", "Desktop window title substring")
}

func getTargetFlags(cmd *cobra.Command) target.Target {
	kind, _ := cmd.Flags().GetString("env")
	snapshot, _ := cmd.Flags().GetString("snapshot")
	url, _ := cmd.Flags().GetString("url")
	controlURL, _ := cmd.Flags().GetString("control-url")
	tree, _ := cmd.Flags().GetString("tree")
	app, _ := cmd.Flags().GetString("app")
	window, _ := cmd.Flags().GetString("window")
	return target.Target{
		Kind:       target.Kind(kind),
		Snapshot:   snapshot,
		URL:        url,
		ControlURL: controlURL,
		Tree:       tree,
		App:        app,
		Window:     window,
	}
}

// getPlatformFlag parses --platform. Empty means "not given".
func getPlatformFlag(cmd *cobra.Command) (model.Platform, error) {
	p, _ := cmd.Flags().GetString("platform")
	if p == "" {
		return "", nil
	}
	return model.ParsePlatform(p)
}

// readInput reads a file, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// decodeInput decodes YAML or JSON from a file or stdin into v.
func decodeInput(cmd *cobra.Command, path string, v interface{}) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	return nil
}
