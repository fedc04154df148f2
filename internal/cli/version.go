package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/version"
)

// NewVersionCmd prints the compiled version details.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show promptify version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %s\n", version.Full())
			fmt.Fprintf(out, "Agents:  %s\n", strings.Join(stageTitles(), " → "))
		},
	}
}

func versionString() string {
	return version.Full()
}

func stageTitles() []string {
	names := agent.New(nil).StageNames()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToUpper(n[:1]) + n[1:]
	}
	return out
}
