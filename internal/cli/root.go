package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd builds the command tree. customize, when set, adjusts the
// runtime dependencies of every action before it runs.
func newRootCmd(customize func(*app)) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "mailctl <view|send|add|edit|remove>",
		Short:        "mailctl reads and sends mail over IMAP/SMTP",
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				if _, ok := ParseAction(args[0]); !ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "unknown action %q\n", args[0])
				}
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/mailctl/config.yaml)")

	for _, action := range Actions {
		cmd.AddCommand(newActionCmd(action, &configPath, customize))
	}

	cmd.SetErr(os.Stderr)
	cmd.SetOut(os.Stdout)
	cmd.SetIn(os.Stdin)

	return cmd
}

func newActionCmd(action Action, configPath *string, customize func(*app)) *cobra.Command {
	return &cobra.Command{
		Use:   action.String(),
		Short: action.Short(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, *configPath)
			if err != nil {
				return err
			}
			if customize != nil {
				customize(a)
			}
			return action.Run(cmd.Context(), a)
		},
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
