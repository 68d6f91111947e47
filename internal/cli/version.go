package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tessro/nowsync/internal/config"
	"github.com/tessro/nowsync/internal/helper"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show version information",
	Annotations: map[string]string{optionalConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		adapter := helperAdapter(cfg)

		if JSONOutput() {
			info := map[string]string{
				"version":            Version,
				"commit":             Commit,
				"build_date":         BuildDate,
				"go_version":         runtime.Version(),
				"os":                 runtime.GOOS,
				"arch":               runtime.GOARCH,
				"helper_interpreter": adapter.Interpreter,
				"helper_script":      adapter.Script,
				"helper_framework":   adapter.Framework,
				"helper_status":      helperStatus(adapter),
			}
			out, _ := json.MarshalIndent(info, "", "  ")
			fmt.Println(string(out))
			return
		}

		fmt.Printf("nowsync %s\n", Version)
		if Verbose() {
			fmt.Printf("  commit:     %s\n", Commit)
			fmt.Printf("  built:      %s\n", BuildDate)
			fmt.Printf("  go version: %s\n", runtime.Version())
			fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Printf("  helper:     %s %s\n", adapter.Interpreter, adapter.Script)
			fmt.Printf("  framework:  %s\n", adapter.Framework)
			fmt.Printf("  status:     %s\n", helperStatus(adapter))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func helperAdapter(c *config.Config) helper.Adapter {
	if c == nil {
		c = config.Default()
	}
	return c.Helper.HelperAdapter()
}

// helperStatus reports whether the helper files are in place.
func helperStatus(a helper.Adapter) string {
	if err := a.Verify(); err != nil {
		return err.Error()
	}
	return "ok"
}
