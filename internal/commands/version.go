package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/proboscis/claude-block-checker/internal/output"
)

// Version information, set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show claude-block-checker version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := versionInfo{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}
			output.Print(info, func() {
				fmt.Fprintf(output.Stdout, "claude-block-checker version %s (commit %s, built %s)\n", Version, Commit, Date)
			})
		},
	}
}
