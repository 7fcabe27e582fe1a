package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/upform/pkg/form"
	"github.com/vango-dev/upform/pkg/notify"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = stderrors.New("aborted")

type fillOptions struct {
	dataPath string
	method   string
	attempts int
	listen   string
}

func fillCmd(g *globalOptions) *cobra.Command {
	var opts fillOptions

	cmd := &cobra.Command{
		Use:   "fill URL",
		Short: "Fill a form interactively and submit it",
		Long: `Prompt for every field of a record, submit it, and re-prompt only
the fields the server rejected until it is accepted.

The data file gives the field names and their initial values. With
--listen, failure notifications are streamed over WebSocket at /events
and client metrics are exposed at /metrics.

Examples:
  upform fill /users --data user.yaml
  upform fill /users/1 --data user.yaml --method put
  upform fill /users --data user.yaml --listen localhost:9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFillCmd(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), g, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "YAML/JSON file with field names and initial values (required)")
	cmd.Flags().StringVarP(&opts.method, "method", "X", "post", "HTTP method")
	cmd.Flags().IntVar(&opts.attempts, "attempts", 3, "Maximum number of submissions")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Address serving /events and /metrics while filling")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runFillCmd(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, g *globalOptions, opts fillOptions, url string) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg)

	shape, err := readRecord(opts.dataPath, stdin)
	if err != nil {
		return err
	}

	bus := notify.NewBus(notify.WithLogger(logger.With("component", "notify")))
	unsubscribe := bus.Subscribe(func(e notify.Event) {
		errorMsg(stderr, "%s", e.Message)
	})
	defer unsubscribe()

	reg := prometheus.NewRegistry()
	if opts.listen != "" {
		stop, err := listenEvents(opts.listen, bus, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
		info(stdout, "Streaming events on ws://%s/events", opts.listen)
	}

	f := form.New(shape,
		form.WithClient(newClient(cfg, reg, logger)),
		form.WithNotifier(bus),
		form.WithClearPolicy(cfg.ClearPolicy()),
		form.WithLogger(logger.With("component", "form")),
	)

	return runFill(ctx, stdout, f, surveyPrompter{}, opts.method, url, opts.attempts)
}

// runFill prompts, submits and re-prompts rejected fields until the
// submission succeeds or attempts run out.
func runFill(ctx context.Context, w io.Writer, f *form.State, p prompter, method, url string, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	fields := f.Keys()
	for attempt := 1; ; attempt++ {
		for _, key := range fields {
			current, _ := f.Value(key)
			answer, err := p.Ask(ctx, key, current, f.Error(key))
			if err != nil {
				return err
			}
			if err := f.Set(key, parseValue(answer, current)); err != nil {
				return err
			}
		}

		res := f.Submit(ctx, method, url, nil).Wait()
		if res.OK() {
			success(w, "Submitted after %d attempt(s): %d", attempt, res.Response.Status)
			return printBody(w, res.Response.Data, res.Response.Raw)
		}

		fields = rejectedFields(f)
		if len(fields) == 0 {
			return res.Err
		}
		warn(w, "%d field(s) need attention", len(fields))
		printFieldErrors(w, f)
		if attempt >= attempts {
			return fmt.Errorf("gave up after %d attempt(s): %w", attempt, res.Err)
		}
	}
}

// rejectedFields returns the tracked fields that currently have errors.
func rejectedFields(f *form.State) []string {
	var fields []string
	for _, key := range f.Keys() {
		if f.Error(key) != "" {
			fields = append(fields, key)
		}
	}
	return fields
}

// listenEvents serves the notification stream and client metrics until
// the returned stop function is called.
func listenEvents(addr string, bus *notify.Bus, reg *prometheus.Registry, logger *slog.Logger) (stop func(), err error) {
	r := chi.NewRouter()
	r.Handle("/events", bus.Handler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("event server stopped", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// prompter asks for one field value. problem is the field's current
// error message, if any.
type prompter interface {
	Ask(ctx context.Context, field string, current any, problem string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Ask(ctx context.Context, field string, current any, problem string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := &survey.Input{
		Message: field + ":",
		Default: formatValue(current),
	}
	if problem != "" {
		prompt.Message = fmt.Sprintf("%s (%s):", field, problem)
	}

	var out string
	if err := survey.AskOne(prompt, &out); err != nil {
		if stderrors.Is(err, terminal.InterruptErr) {
			return "", errAborted
		}
		return "", err
	}
	return out, nil
}

// formatValue renders a field value as prompt default text.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		out, err := sonic.MarshalString(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return out
	default:
		return fmt.Sprint(v)
	}
}
