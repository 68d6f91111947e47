package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/nowsync/internal/config"
	nserrors "github.com/tessro/nowsync/internal/errors"
	"github.com/tessro/nowsync/internal/wizard"
)

var setupCmd = &cobra.Command{
	Use:         "setup",
	Short:       "Interactively configure the media helper",
	Long:        `Locate the mediaremote-adapter script and framework and save them to the config file.`,
	Annotations: map[string]string{optionalConfig: "true"},
	RunE:        runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	helperCfg, err := wizard.Run(cfg.Helper)
	if errors.Is(err, wizard.ErrNotInteractive) {
		return nserrors.WithSuggestion(err, "Use 'nowsync config set helper.script <path>' and 'helper.framework' instead")
	}
	if err != nil {
		return err
	}

	updated := *cfg
	updated.Helper = helperCfg
	if err := updated.Validate(); err != nil {
		return err
	}

	configPath := getConfigPath()
	if err := config.Save(configPath, &updated); err != nil {
		return err
	}

	if err := updated.Helper.HelperAdapter().Verify(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "saved",
			"path":   configPath,
		})
	}
	fmt.Printf("Saved helper settings to %s\n", configPath)
	return nil
}
