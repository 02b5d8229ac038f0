package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/locator-cli/internal/env/target"
	"github.com/mj1618/locator-cli/internal/locator"
	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/output"
	"github.com/mj1618/locator-cli/internal/service"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture an element into the object repository",
	Long: `Capture an element and store its locator chain. Attributes are read from
--file, or from the element matching --locator in an environment.
Capturing an element that is already stored returns the existing object.

Locators are written kind=value, optionally with a tag, test-id attribute
or role: id=save, text@button=Save, test-id[data-cy]=submit, xpath=//form/button[2].

Examples:
  locator-cli capture --file button.yaml --platform web
  locator-cli capture --snapshot page.yaml --locator id=save --name save-button
  locator-cli capture --url http://localhost:3000 --locator "text@button=Log in"
  locator-cli capture --tree notes.json --locator "text@btn=New Note"`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().String("file", "", "Captured attributes file (YAML or JSON, - for stdin)")
	captureCmd.Flags().String("locator", "", "Locator of the element to capture")
	captureCmd.Flags().String("name", "", "Object name (default: derived from tag and label)")
	captureCmd.Flags().String("platform", "", "Platform: web, desktop, mobile (default: from the environment)")
	addTargetFlags(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	desc, _ := cmd.Flags().GetString("locator")
	name, _ := cmd.Flags().GetString("name")
	platform, err := getPlatformFlag(cmd)
	if err != nil {
		return err
	}
	if file == "" && desc == "" {
		return fmt.Errorf("either --file or --locator is required")
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	var res *service.CaptureResult
	if file != "" {
		var attrs model.CapturedAttributes
		if err := decodeInput(cmd, file, &attrs); err != nil {
			return err
		}
		res, err = svc.Capture(cmd.Context(), platform, name, attrs)
	} else {
		res, err = captureLocator(cmd, svc, platform, name, desc)
	}
	if err != nil {
		return err
	}
	return output.Print(res)
}

func captureLocator(cmd *cobra.Command, svc *service.Service, platform model.Platform, name, desc string) (*service.CaptureResult, error) {
	loc, err := locator.ParseDescriptor(desc)
	if err != nil {
		return nil, err
	}
	opened, err := target.Open(cmd.Context(), cfg, getTargetFlags(cmd))
	if err != nil {
		return nil, err
	}
	defer opened.Close()
	if platform == "" {
		platform = opened.Platform
	}
	return svc.CaptureLocator(cmd.Context(), platform, name, opened.Accessor, loc)
}
