package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/config"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/env"
	"github.com/abdul-hamid-achik/hitdraft/packages/http"
	"github.com/abdul-hamid-achik/hitdraft/packages/logging"
	"github.com/abdul-hamid-achik/hitdraft/packages/output"
	"github.com/abdul-hamid-achik/hitdraft/packages/store"
	"github.com/spf13/cobra"
)

// app is the per-invocation wiring built from global flags and config.
type app struct {
	flags    *globalFlags
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	store    store.Store
	out      io.Writer
}

func newApp(cmd *cobra.Command, g *globalFlags) (*app, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("failed to load config: %w", err))
	}

	logFile := cfg.LogFile
	if g.logFile != "" {
		logFile = g.logFile
	}
	logger, closeLog, err := logging.New(logging.Options{
		Verbose: g.verbose || cfg.GetVerbose(),
		File:    logFile,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	return &app{
		flags:    g,
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		out:      cmd.OutOrStdout(),
	}, nil
}

// openStore opens the configured saved-request store once.
func (a *app) openStore() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	driver, path := a.cfg.Store.Driver, a.cfg.Store.Path
	if a.flags.storePath != "" {
		// An explicit path picks its own driver unless one is given too
		driver, path = "", a.flags.storePath
	}
	if a.flags.storeDriver != "" {
		driver = a.flags.storeDriver
	}

	st, err := store.Open(driver, path, a.logger)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	a.logger.Debug("store opened", slog.String("driver", driver), slog.String("path", path))
	a.store = st
	return st, nil
}

func (a *app) Close() error {
	var firstErr error
	if a.store != nil {
		firstErr = a.store.Close()
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *app) noColor() bool {
	return a.flags.noColor || a.cfg.GetNoColor()
}

// transportOptions are per-command overrides of the config transport.
type transportOptions struct {
	timeout  string
	insecure bool
	noFollow bool
	proxy    string
}

func (t *transportOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.timeout, "timeout", getEnvString("HITDRAFT_TIMEOUT", ""), "Request timeout, e.g. 30s or 500ms (env: HITDRAFT_TIMEOUT)")
	cmd.Flags().BoolVarP(&t.insecure, "insecure", "k", getEnvBool("HITDRAFT_INSECURE", false), "Disable SSL certificate validation (env: HITDRAFT_INSECURE)")
	cmd.Flags().BoolVar(&t.noFollow, "no-follow", false, "Do not follow redirects")
	cmd.Flags().StringVar(&t.proxy, "proxy", getEnvString("HITDRAFT_PROXY", ""), "Proxy URL for HTTP requests (env: HITDRAFT_PROXY)")
}

func (a *app) client(t *transportOptions) (*http.Client, error) {
	timeout := a.cfg.GetTimeout()
	if t.timeout != "" {
		d, err := time.ParseDuration(t.timeout)
		if err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", t.timeout, err))
		}
		timeout = d
	}

	proxy := a.cfg.Proxy
	if t.proxy != "" {
		proxy = t.proxy
	}

	opts := []http.ClientOption{
		http.WithTimeout(timeout),
		http.WithFollowRedirects(a.cfg.GetFollowRedirects() && !t.noFollow),
		http.WithValidateSSL(a.cfg.GetValidateSSL() && !t.insecure),
		http.WithDefaultHeaders(a.cfg.Headers),
	}
	if a.cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(a.cfg.MaxRedirects))
	}
	if proxy != "" {
		opts = append(opts, http.WithProxy(proxy))
	}
	if a.cfg.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(a.cfg.UserAgent))
	}
	return http.NewClient(opts...), nil
}

func (a *app) dispatcher(t *transportOptions) (*http.Dispatcher, error) {
	client, err := a.client(t)
	if err != nil {
		return nil, err
	}
	return http.NewDispatcher(client, http.WithLogger(a.logger)), nil
}

// resolver layers config variables, HITDRAFT_VAR_* environment variables
// and an optional .env file, later sources winning. With export set, the
// file's values also fill unset OS variables for {{$NAME}}.
func (a *app) resolver(envFile string, export bool) (*env.Resolver, error) {
	if envFile == "" {
		envFile = a.cfg.EnvFile
	}

	var fileVars map[string]string
	if envFile != "" {
		load := env.LoadDotEnv
		if export {
			load = env.LoadAndExportDotEnv
		}
		vars, err := load(envFile)
		if err != nil {
			return nil, withExitCode(ExitConfigError, fmt.Errorf("failed to load env file: %w", err))
		}
		fileVars = vars
	}

	r := env.NewResolver(env.WithLogger(a.logger))
	r.SetVariables(env.MergeVariables(
		a.cfg.Variables,
		env.LoadSystemEnv("HITDRAFT_VAR_"),
		env.StringVariables(fileVars),
	))
	return r, nil
}

func (a *app) formatter(format, filter string, verbose bool) (output.Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter(
			output.JSONWithWriter(a.out),
			output.JSONWithFilter(filter),
		), nil
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(a.out),
			output.WithVerbose(verbose || a.flags.verbose),
			output.WithNoColor(a.noColor()),
			output.WithFilter(filter),
		), nil
	default:
		return nil, withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q (use console or json)", format))
	}
}
