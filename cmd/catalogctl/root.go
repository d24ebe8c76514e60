package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lucad87test-org/kong-test/internal/cleanup"
	"github.com/lucad87test-org/kong-test/internal/config"
	"github.com/lucad87test-org/kong-test/internal/konnect"
)

// flag names
const (
	flagAPIURL     = "api-url"
	flagNotFoundOK = "not-found-ok"
	flagJSON       = "json"
	flagVerbose    = "verbose"
)

type options struct {
	apiURL     string
	notFoundOK bool
	json       bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Service Catalog cleanup for the end-to-end suite",
		Long:          "catalogctl deletes catalog entities through the Service Hub API.\nThe token is read from KONNECT_API_TOKEN (environment or .env).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, flagAPIURL, "", "Service Hub API origin (env: KONNECT_API_URL)")
	root.PersistentFlags().BoolVar(&opts.notFoundOK, flagNotFoundOK, true, "count a 404 on delete as deleted (env: CLEANUP_NOT_FOUND_IS_SUCCESS)")
	root.PersistentFlags().BoolVar(&opts.json, flagJSON, false, "print results as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, flagVerbose, "v", false, "print the configuration summary to stderr")

	root.AddCommand(newCleanupCmd(opts))
	return root
}

// load reads configuration and applies flag overrides. Flags win over env.
func (o *options) load(cmd *cobra.Command) (*config.Config, *konnect.Client, error) {
	cfg, err := config.LoadConfig(config.RequireAPI, func(c *config.Config) {
		if cmd.Flags().Changed(flagAPIURL) {
			c.APIURL = o.apiURL
		}
		if cmd.Flags().Changed(flagNotFoundOK) {
			c.NotFoundIsDeleted = o.notFoundOK
		}
	})
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		cfg.PrintSummary(cmd.ErrOrStderr())
	}

	client, err := konnect.New(konnect.Config{
		BaseURL: cfg.APIURL,
		Token:   cfg.APIToken,
		RPS:     cfg.APIRPS,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func (o *options) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func printResult(w io.Writer, res *cleanup.Result) {
	if res.Empty() {
		fmt.Fprintln(w, "No leftovers found.")
		return
	}
	for _, o := range res.Outcomes {
		switch {
		case !o.OK():
			fmt.Fprintf(w, "FAILED  %-8s %s: %s\n", o.Kind, o.ID, o.Error)
		case o.AlreadyGone:
			fmt.Fprintf(w, "GONE    %-8s %s\n", o.Kind, o.ID)
		default:
			fmt.Fprintf(w, "DELETED %-8s %s\n", o.Kind, o.ID)
		}
	}
	fmt.Fprintf(w, "%d services, %d integration instances attempted; %d failed\n",
		len(res.Services), len(res.Instances), len(res.Failed()))
}
