// Package sdb implements the 'venusctl sdb' command family.
package sdb

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/venusroot/bootstrap/internal/sdb"
)

// NewSDBCmd creates the sdb command and its subcommands.
func NewSDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdb",
		Short: "Soft debugger wire protocol tools",
	}

	cmd.AddCommand(newRewriteCmd())

	return cmd
}

func newRewriteCmd() *cobra.Command {
	var command string

	cmd := &cobra.Command{
		Use:   "rewrite <hex>",
		Short: "Rewrite the path in a captured reply",
		Long: `Apply the emulation-host path rewrite to one captured soft debugger reply
and print the result as hex. The reply is given as hex; whitespace is ignored.

Supported request commands (set/id):
  21/1  assembly location
  24/1  module info

Examples:
  venusctl sdb rewrite --command 21/1 "0000003a 00000007 80 0000 0000002f 5a3a5c..."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd.OutOrStdout(), command, args[0])
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", sdb.CmdAssemblyGetLocation.String(), "Request command (set/id) the reply answers")

	return cmd
}

func runRewrite(w io.Writer, command, input string) error {
	cmd, err := sdb.ParseCommand(command)
	if err != nil {
		return err
	}
	if !sdb.Recognized(cmd) {
		return fmt.Errorf("command %s carries no path", cmd)
	}

	reply, err := hex.DecodeString(strings.Join(strings.Fields(input), ""))
	if err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}

	out, err := sdb.RewriteReply(cmd, reply)
	if err != nil {
		return err
	}

	h, err := sdb.DecodeHeader(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "length: %d -> %d\n%s\n", len(reply), h.Length, hex.EncodeToString(out))
	return err
}
