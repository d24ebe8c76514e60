package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lucad87test-org/kong-test/internal/cleanup"
	"github.com/lucad87test-org/kong-test/internal/errs"
)

func newCleanupCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete catalog entities",
	}
	cmd.AddCommand(
		newLeftoversCmd(opts),
		newDeleteOneCmd(opts, cleanup.KindService),
		newDeleteOneCmd(opts, cleanup.KindInstance),
	)
	return cmd
}

func newLeftoversCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "leftovers",
		Short: "Delete every service and every GitHub integration instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := opts.load(cmd)
			if err != nil {
				return err
			}
			res, err := cleanup.NewReconciler(client, cleanup.TreatNotFoundAsDeleted(cfg.NotFoundIsDeleted)).Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := opts.print(cmd.OutOrStdout(), res, func(w io.Writer) { printResult(w, res) }); err != nil {
				return err
			}
			if failed := len(res.Failed()); failed > 0 {
				return fmt.Errorf("%d deletions failed", failed)
			}
			return nil
		},
	}
}

func newDeleteOneCmd(opts *options, kind string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <id>",
		Short: "Delete one " + kind + " by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := opts.load(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			del := client.DeleteService
			if kind == cleanup.KindInstance {
				del = client.DeleteIntegrationInstance
			}

			out := map[string]string{"kind": kind, "id": id, "result": "deleted"}
			delErr := del(cmd.Context(), id)
			switch {
			case delErr == nil:
			case errs.CodeOf(delErr) == errs.NotFound && cfg.NotFoundIsDeleted:
				out["result"] = "already gone"
				delErr = nil
			default:
				out["result"] = "failed"
				out["code"] = string(errs.CodeOf(delErr))
				out["error"] = errs.MessageOf(delErr)
			}
			if err := opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s %s\n", kind, id, out["result"])
			}); err != nil {
				return err
			}
			return delErr
		},
	}
}
