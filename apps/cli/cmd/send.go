package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/http"
	"github.com/abdul-hamid-achik/hitdraft/packages/output"
	"github.com/abdul-hamid-achik/hitdraft/packages/profile"
	"github.com/abdul-hamid-achik/hitdraft/packages/session"
	"github.com/abdul-hamid-achik/hitdraft/packages/store"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// responseOptions control how a sent draft is reported.
type responseOptions struct {
	transportOptions
	envFile     string
	exportEnv   bool
	save        string
	filter      string
	format      string
	download    bool
	copy        bool
	repeat      int
	rate        float64
	concurrency int
}

func (o *responseOptions) register(cmd *cobra.Command) {
	o.transportOptions.register(cmd)
	f := cmd.Flags()
	f.StringVar(&o.envFile, "env-file", getEnvString("HITDRAFT_ENV_FILE", ""), "Path to .env file for variable interpolation (env: HITDRAFT_ENV_FILE)")
	f.BoolVar(&o.exportEnv, "export-env", getEnvBool("HITDRAFT_EXPORT_ENV", false), "Export .env values to the process environment so {{$NAME}} can read them (env: HITDRAFT_EXPORT_ENV)")
	f.StringVar(&o.save, "save", "", "Save the request under this name before sending")
	f.StringVar(&o.filter, "filter", "", "Print only this gjson path of a JSON response, e.g. data.0.id")
	f.StringVarP(&o.format, "output", "o", getEnvString("HITDRAFT_OUTPUT", "console"), "Output format: console, json (env: HITDRAFT_OUTPUT)")
	f.BoolVar(&o.download, "download", false, "Write the response data to response_<ms>.json")
	f.BoolVar(&o.copy, "copy", false, "Copy the response data to the clipboard")
	f.IntVarP(&o.repeat, "repeat", "n", 1, "Send the request N times and print a latency profile")
	f.Float64VarP(&o.rate, "rate", "r", 0, "Requests per second when repeating (0 = unpaced)")
	f.IntVarP(&o.concurrency, "concurrency", "c", getEnvInt("HITDRAFT_CONCURRENCY", 1), "Requests in flight when repeating (env: HITDRAFT_CONCURRENCY)")
}

type sendOptions struct {
	responseOptions
	headers []string
	query   []string
	data    string
}

func newSendCmd(g *globalFlags) *cobra.Command {
	o := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send METHOD URL",
		Short: "Compose and send a request",
		Long: `Compose a request from a method, a URL, query parameters, headers and
a body, send it and print the response.

Query parameters are appended to the URL with its existing query string
removed. A POST, PUT or PATCH with a body and no Content-Type header is
sent as application/json. JSON responses are pretty-printed.

Values may contain {{name}}, {{$ENV_VAR}} and {{$uuid()}} placeholders.

Examples:
  hitdraft send GET https://api.example.com/users -q page=2 -q limit=10
  hitdraft send POST https://api.example.com/users -d '{"name":"ada"}'
  hitdraft send POST {{baseUrl}}/users -d @user.json --env-file .env
  hitdraft send GET https://api.example.com/users --filter data.0.id
  hitdraft send GET https://api.example.com/health -n 100 -c 10 -r 50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := o.draft(args[0], args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(a *app) error {
				return sendDraft(cmd, a, d, &o.responseOptions)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&o.headers, "header", "H", nil, "Header as 'Key: Value' (repeatable)")
	cmd.Flags().StringArrayVarP(&o.query, "query", "q", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&o.data, "data", "d", "", "Request body, or @file to read it from a file")
	o.responseOptions.register(cmd)

	return cmd
}

func (o *sendOptions) draft(method, url string) (draft.Draft, error) {
	m, err := draft.ParseMethod(method)
	if err != nil {
		return draft.Draft{}, err
	}

	d := draft.Draft{Method: m, URL: url}
	for _, h := range o.headers {
		e, err := draft.ParseEntry(h, ":")
		if err != nil {
			return draft.Draft{}, err
		}
		d.Headers = append(d.Headers, e)
	}
	for _, q := range o.query {
		e, err := draft.ParseEntry(q, "=")
		if err != nil {
			return draft.Draft{}, err
		}
		d.QueryParams = append(d.QueryParams, e)
	}

	body, err := readBody(o.data)
	if err != nil {
		return draft.Draft{}, err
	}
	d.Body = body
	return d, nil
}

// readBody returns data, or the contents of the file when data is @file.
func readBody(data string) (string, error) {
	path, ok := strings.CutPrefix(data, "@")
	if !ok {
		return data, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", withExitCode(ExitUsageError, fmt.Errorf("failed to read body file: %w", err))
	}
	return string(content), nil
}

// withApp builds the app for one command run and closes it afterwards.
func withApp(cmd *cobra.Command, g *globalFlags, fn func(a *app) error) error {
	a, err := newApp(cmd, g)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.logger.Warn("close failed", slog.Any("error", cerr))
		}
	}()
	return fn(a)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// sendDraft resolves placeholders in d, optionally saves it, sends it and
// reports the result.
func sendDraft(cmd *cobra.Command, a *app, d draft.Draft, o *responseOptions) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	resolver, err := a.resolver(o.envFile, o.exportEnv)
	if err != nil {
		return err
	}
	formatter, err := a.formatter(o.format, o.filter, false)
	if err != nil {
		return err
	}
	dispatcher, err := a.dispatcher(&o.transportOptions)
	if err != nil {
		return err
	}

	// Saved requests keep their placeholders; only the sent copy is resolved
	var st store.Store = store.NewMemoryStore()
	if o.save != "" {
		if st, err = a.openStore(); err != nil {
			return err
		}
	}
	sess := session.New(st, dispatcher,
		session.WithDraft(d),
		session.WithContentTypeMatch(a.cfg.GetContentTypeMatch()),
		session.WithLogger(a.logger),
	)
	if o.save != "" {
		if err := sess.Save(o.save); err != nil {
			return err
		}
		list, err := sess.Saved()
		if err != nil {
			return err
		}
		a.logger.Info("request saved", slog.String("name", o.save), slog.Int("index", len(list)-1))
		if o.format != "json" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved as #%d %q\n", len(list)-1, o.save)
		}
	}

	resolved := resolver.ResolveDraft(d)
	sess.SetDraft(resolved)
	call := http.CallFromDraft(resolved, a.cfg.GetContentTypeMatch())

	if o.repeat > 1 {
		return profileCall(ctx, a, dispatcher, formatter, call, o)
	}

	desc, _ := sess.Send(ctx)
	formatter.FormatResponse(call, desc)
	if desc.Error {
		return &exitError{code: ExitNetworkError, err: fmt.Errorf("%s: %s", desc.Kind, desc.Message), silent: true}
	}

	if o.download {
		path, err := downloadResponse(".", desc, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Downloaded %s\n", path)
	}
	if o.copy {
		if err := clipboard.WriteAll(desc.Data); err != nil {
			a.logger.Warn("copy to clipboard failed", slog.Any("error", err))
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Copied response to clipboard")
		}
	}
	return nil
}

func profileCall(ctx context.Context, a *app, d *http.Dispatcher, f output.Formatter, call http.Call, o *responseOptions) error {
	runner := profile.NewRunner(d, profile.WithLogger(a.logger))
	report, err := runner.Run(ctx, call, profile.Options{
		Count:       o.repeat,
		Concurrency: o.concurrency,
		Rate:        o.rate,
	})
	if report != nil {
		f.FormatProfile(report)
	}
	if err != nil {
		return err
	}
	if report.Failures > 0 {
		return &exitError{code: ExitNetworkError, err: fmt.Errorf("%d of %d requests failed", report.Failures, report.Total), silent: true}
	}
	return nil
}

// downloadResponse writes the response data to response_<ms>.json in dir.
func downloadResponse(dir string, d http.Descriptor, now time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("response_%d.json", now.UnixMilli()))
	if err := os.WriteFile(path, []byte(d.Data), 0644); err != nil {
		return "", fmt.Errorf("failed to write response: %w", err)
	}
	return path, nil
}
