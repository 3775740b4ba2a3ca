package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/watch"
	"github.com/spf13/cobra"
)

type runOptions struct {
	responseOptions
	watch bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <file.yaml>",
		Short: "Send a request described by a draft file",
		Long: `Send the request described by a YAML draft file.

A draft file looks like:

  method: POST
  url: "{{baseUrl}}/users"
  queryParams:
    - key: notify
      value: "true"
  headers:
    - key: Authorization
      value: "Bearer {{$TOKEN}}"
    - key: X-Debug
      value: "1"
      enabled: false
  body: |
    {"name": "ada"}

Examples:
  hitdraft run create-user.yaml
  hitdraft run create-user.yaml --env-file .env -o json
  hitdraft run create-user.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				return runFile(cmd, a, args[0], o)
			})
		},
	}

	o.responseOptions.register(cmd)
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Watch the file and re-send it on every change")

	return cmd
}

func runFile(cmd *cobra.Command, a *app, path string, o *runOptions) error {
	send := func() error {
		d, err := draft.ReadFile(path)
		if err != nil {
			return withExitCode(ExitParseError, err)
		}
		return sendDraft(cmd, a, d, &o.responseOptions)
	}

	err := send()
	if !o.watch {
		return err
	}
	reportWatchError(cmd, err)

	// Saving once is enough
	o.save = ""

	ctx, cancel := signalContext(cmd)
	defer cancel()

	w := watch.New(path, func(changed string) {
		a.logger.Debug("draft file changed", slog.String("path", changed))
		fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\nRe-sending...\n\n", changed)
		reportWatchError(cmd, send())
	}, watch.WithLogger(a.logger))

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", path)
	return w.Run(ctx)
}

// reportWatchError prints errors that would otherwise end the command.
// Failure descriptors have already been printed by the formatter.
func reportWatchError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) && ee.silent {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}
