// Package discovery implements the 'venusctl discovery' command family.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/venusroot/bootstrap/internal/constants"
	"github.com/venusroot/bootstrap/internal/discovery"
	"github.com/venusroot/bootstrap/internal/logging"
)

// NewDiscoveryCmd creates the discovery command and its subcommands.
func NewDiscoveryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discovery",
		Short: "Debugger discovery tools",
	}

	cmd.AddCommand(newAnnounceCmd())

	return cmd
}

type announceOptions struct {
	IP       string
	Port     uint16
	Project  string
	Duration time.Duration
	Interval time.Duration
	Verbose  bool
}

func newAnnounceCmd() *cobra.Command {
	var opts announceOptions

	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Advertise a debugger endpoint like a running player",
		Long: `Send the player advertisement IDEs listen for on the local network, for
the given debugger endpoint, until the duration elapses or the command is
interrupted. Useful to check that an IDE lists the game before launching it.

The DNSPY_UNITY_DBG2 environment variable overrides --ip and --port when it
carries an address= option, as it does for the game.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runAnnounce(ctx, cmd.OutOrStdout(), opts, discovery.DialMulticast)
		},
	}

	cmd.Flags().StringVar(&opts.IP, "ip", constants.DefaultDebuggerIP, "Debugger IPv4 address")
	cmd.Flags().Uint16Var(&opts.Port, "port", constants.DefaultDebuggerPort, "Debugger port")
	cmd.Flags().StringVar(&opts.Project, "project", constants.ProjectName, "Advertised project name")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 10*time.Second, "How long to advertise")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Second, "Delay between advertisements")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log every advertisement sent")

	return cmd
}

func runAnnounce(ctx context.Context, w io.Writer, opts announceOptions, dial func() (net.PacketConn, error)) error {
	level := "info"
	if opts.Verbose {
		level = "trace"
	}
	logger := logging.NewWithComponent(logging.Config{Level: level, Pretty: true, Output: os.Stderr}, "announce")

	ann := discovery.New(discovery.Settings{
		ProjectName: opts.Project,
		Interval:    opts.Interval,
	}, discovery.Deps{
		Dial:   dial,
		Logger: logger,
	})

	if err := ann.StartWithOwnSocket(opts.IP, opts.Port); err != nil {
		return fmt.Errorf("failed to start advertising: %w", err)
	}
	defer ann.Wait()
	defer ann.Stop()

	msg := strings.TrimSuffix(string(ann.Message()), "\x00")
	if _, err := fmt.Fprintf(w, "Advertising: %s\n", msg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()
	<-ctx.Done()
	return nil
}
