// Package config implements the 'venusctl config' command family.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/venusroot/bootstrap/internal/cli/helpers"
	"github.com/venusroot/bootstrap/internal/config"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the bootstrap configuration",
		Long: `Inspect the bootstrap configuration of a game installation.

Configuration Priority:
  1. VENUS_* environment variables (highest)
  2. Config file (VenusRootLoader/config.yaml in the game directory)
  3. Built-in defaults

Environment Variables:
  VENUS_CONFIG    Override the config file path`,
	}

	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

func newViewCmd() *cobra.Command {
	var (
		gameDir string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show merged configuration",
		Long: `Display the effective configuration after defaults, the config file and
environment overrides are merged. The result is not validated; use
'venusctl config validate' for that.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, viewFormats); err != nil {
				return err
			}
			return runView(cmd.OutOrStdout(), gameDir, helpers.OutputFormat(format))
		},
	}

	helpers.AddGameDirFlag(cmd, &gameDir)
	helpers.AddFormatFlag(cmd, &format, helpers.FormatYAML, viewFormats)

	return cmd
}

var viewFormats = []helpers.OutputFormat{helpers.FormatYAML, helpers.FormatJSON}

func runView(w io.Writer, gameDir string, format helpers.OutputFormat) error {
	loader := config.NewLoader(gameDir)

	cfg, err := config.LoadBootstrapConfig(loader.ConfigPath())
	if err != nil {
		return err
	}

	formatter, err := helpers.NewFormatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(cfg, w)
}

func newValidateCmd() *cobra.Command {
	var (
		gameDir string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the bootstrap configuration",
		Long: `Validate the effective configuration and report every error.

Checks the configuration for:
- A known log level
- An IPv4 debugger address
- A known hook layering policy
- A complete managed entry point`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, validateFormats); err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), gameDir, helpers.OutputFormat(format))
		},
	}

	helpers.AddGameDirFlag(cmd, &gameDir)
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, validateFormats)

	return cmd
}

var validateFormats = []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON}

type validationResult struct {
	Field   string `header:"FIELD" json:"field"`
	Message string `header:"ERROR" json:"message"`
}

func runValidate(w io.Writer, gameDir string, format helpers.OutputFormat) error {
	loader := config.NewLoader(gameDir)
	path := loader.ConfigPath()

	cfg, err := config.LoadBootstrapConfig(path)
	if err != nil {
		return err
	}

	results := []validationResult{}
	var multi *config.MultiValidationError
	if err := cfg.Validate(); errors.As(err, &multi) {
		for _, e := range multi.Errors {
			results = append(results, validationResult{Field: e.Field, Message: e.Message})
		}
	} else if err != nil {
		return err
	}

	if format == helpers.FormatJSON {
		output := struct {
			Path    string             `json:"path"`
			Valid   bool               `json:"valid"`
			Results []validationResult `json:"errors"`
		}{Path: path, Valid: len(results) == 0, Results: results}
		if err := (&helpers.JSONFormatter{}).Format(output, w); err != nil {
			return err
		}
	} else {
		if len(results) == 0 {
			_, err := fmt.Fprintf(w, "✓ Configuration is valid (%s)\n", path)
			return err
		}
		if err := (&helpers.TableFormatter{}).Format(results, w); err != nil {
			return err
		}
	}

	if len(results) > 0 {
		return fmt.Errorf("configuration has %d error(s)", len(results))
	}
	return nil
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of config.yaml",
		Long: `Print a JSON schema describing VenusRootLoader/config.yaml, for editors
that validate YAML against a schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd.OutOrStdout())
		},
	}
}

func runSchema(w io.Writer) error {
	reflector := jsonschema.Reflector{
		FieldNameTag:               "yaml",
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  false,
	}
	schema := reflector.Reflect(&config.BootstrapConfig{})
	schema.Title = "VenusRootLoader bootstrap configuration"

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
