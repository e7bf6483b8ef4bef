package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/entityadmin/cmd/entityctl/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "entityctl",
		Short:        "Operator tooling for the entity admin backend",
		SilenceUsage: true,
	}
	root.AddCommand(newEncodeCmd(), newDecodeCmd(), newJobsCmd())
	return root
}

func newEncodeCmd() *cobra.Command {
	var op string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode an entity form read from stdin as a save row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.EncodeForm(cli.EncodeOptions{
				Op:     op,
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().StringVar(&op, "op", "n", "Row operation: n (new), u (update) or d (delete)")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var opts cli.DecodeOptions
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode response lines read from stdin into JSON records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()
			return cli.DecodeLines(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Entities, "entities", false, "Decode rows as typed entities")
	cmd.Flags().BoolVar(&opts.Unquote, "unquote", false, "Collapse doubled single quotes inside values")
	return cmd
}

func newJobsCmd() *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "Redis address")

	var reason string
	trigger := &cobra.Command{
		Use:   "trigger <job>",
		Short: "Enqueue a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cli.NewTask(args[0], reason); err != nil {
				return err
			}
			jc, err := cli.NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer jc.Close()
			info, err := jc.Trigger(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return err
		},
	}
	trigger.Flags().StringVar(&reason, "reason", "manual", "Reason recorded in the job payload")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show default queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jc, err := cli.NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer jc.Close()
			s, err := jc.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
