package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/vitalcall/consult/internal/registry"
	"github.com/vitalcall/consult/internal/summary"
)

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Inspect stored patients",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every patient as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(commandContext(cmd), func(ctx context.Context, reg *registry.Registry) error {
				patients, err := reg.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(patients)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <uid>",
		Short: "Look up one patient by UID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(commandContext(cmd), func(ctx context.Context, reg *registry.Registry) error {
				res, err := reg.Lookup(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	})

	return cmd
}

func summariesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "Inspect stored conversation summaries",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print conversation summaries as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, _ := cmd.Flags().GetString("uid")

			cfg, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			repo, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			records, err := summary.New(nil, repo).List(ctx, uid)
			if err != nil {
				return err
			}
			return printJSON(records)
		},
	}
	listCmd.Flags().String("uid", "", "only summaries for this patient UID")
	cmd.AddCommand(listCmd)

	return cmd
}

func withRegistry(ctx context.Context, fn func(context.Context, *registry.Registry) error) error {
	cfg, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(ctx, registry.New(repo))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
