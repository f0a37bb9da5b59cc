package helpers

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func formatNames(formats []OutputFormat) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

// AddFormatFlag registers -o/--format limited to supported, with shell
// completion of the supported names.
func AddFormatFlag(cmd *cobra.Command, format *string, def OutputFormat, supported []OutputFormat) {
	names := formatNames(supported)
	cmd.Flags().StringVarP(format, "format", "o", string(def),
		fmt.Sprintf("Output format (%s)", strings.Join(names, ", ")))
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(names, cobra.ShellCompDirectiveNoFileComp))
}

// AddGameDirFlag registers -g/--game-dir, the directory holding the game
// executable and the VenusRootLoader folder. It defaults to the working
// directory.
func AddGameDirFlag(cmd *cobra.Command, gameDir *string) {
	wd, _ := os.Getwd()
	cmd.Flags().StringVarP(gameDir, "game-dir", "g", wd, "Game directory (holds the game executable and VenusRootLoader)")
	_ = cmd.MarkFlagDirname("game-dir")
}

// ValidateFormat rejects a format outside supported.
func ValidateFormat(format string, supported []OutputFormat) error {
	if slices.Contains(supported, OutputFormat(format)) {
		return nil
	}
	return fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(formatNames(supported), ", "))
}
