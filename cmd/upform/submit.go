package main

import (
	"context"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/upform/pkg/form"
)

type submitOptions struct {
	dataPath string
	sets     []string
	headers  []string
}

func submitCmd(g *globalOptions) *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit METHOD URL",
		Short: "Submit a record once",
		Long: `Submit a record with the given method and print the response.

Field values come from a YAML or JSON file and/or --set flags. Values
for --set are read as YAML scalars, so numbers and booleans keep their
type. On a validation failure the field errors are printed and the
command exits non-zero.

Examples:
  upform submit post /users --data user.yaml
  upform submit put /users/1 --set name=Ada --set age=36
  upform submit get https://api.example.com/search --set q=ada`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), g, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "YAML/JSON file with field values (- for stdin)")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "Field assignment key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Request header \"Key: Value\" (repeatable)")

	return cmd
}

func runSubmit(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, g *globalOptions, opts submitOptions, method, url string) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg)

	record := form.Record{}
	if opts.dataPath != "" {
		if record, err = readRecord(opts.dataPath, stdin); err != nil {
			return err
		}
	}
	if err := applySets(record, opts.sets); err != nil {
		return err
	}
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	f := form.New(record,
		form.WithClient(newClient(cfg, prometheus.DefaultRegisterer, logger)),
		form.WithClearPolicy(cfg.ClearPolicy()),
		form.WithLogger(logger.With("component", "form")),
	)

	res := f.Submit(ctx, method, url, &form.RequestOptions{Headers: headers}).Wait()
	if !res.OK() {
		printFieldErrors(stderr, f)
		return res.Err
	}

	success(stdout, "%s %s: %d", strings.ToUpper(method), url, res.Response.Status)
	return printBody(stdout, res.Response.Data, res.Response.Raw)
}

// printBody prints a decoded JSON body indented, or the raw body as is.
func printBody(w io.Writer, data any, raw []byte) error {
	switch data.(type) {
	case nil:
		return nil
	case string:
		_, err := w.Write(append(raw, '\n'))
		return err
	}
	out, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
