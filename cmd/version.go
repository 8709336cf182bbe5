package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/version"
)

var versionFormat = newOutputFormat("text", "text", "json")

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for folio.

Examples:
  folio version                # Show short version
  folio version --detailed     # Show build details
  folio version --format json  # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().VarP(versionFormat, "format", "f", "Output format (text, json)")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if versionFormat.value == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			*version.BuildInfo
			IsRelease bool `json:"is_release"`
		}{version.GetBuildInfo(), version.IsRelease()})
	}

	if detailed, _ := cmd.Flags().GetBool("detailed"); detailed {
		_, err := fmt.Fprintln(out, version.GetDetailedVersion())
		return err
	}
	_, err := fmt.Fprintf(out, "folio %s\n", version.GetShortVersion())
	return err
}
