package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/abdul-hamid-achik/hitdraft/packages/store"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	storePath   string
	storeDriver string
	logFile     string
	noColor     bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "hitdraft",
		Short: "Compose, send and save HTTP requests.",
		Long: `hitdraft composes HTTP requests from a method, a URL, query parameters,
headers and a body, sends them and prints the response with timing and
size. Requests can be saved, listed, loaded and deleted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", getEnvString("HITDRAFT_CONFIG", ""), "Path to config file (env: HITDRAFT_CONFIG)")
	pf.StringVar(&g.storePath, "store", getEnvString("HITDRAFT_STORE", ""), "Saved-request store path, e.g. saved.yaml or sqlite:saved.db (env: HITDRAFT_STORE)")
	pf.StringVar(&g.storeDriver, "store-driver", getEnvString("HITDRAFT_STORE_DRIVER", ""), "Store backend: file, sqlite, memory (env: HITDRAFT_STORE_DRIVER)")
	pf.StringVar(&g.logFile, "log-file", getEnvString("HITDRAFT_LOG_FILE", ""), "Write JSON logs to file (env: HITDRAFT_LOG_FILE)")
	pf.BoolVar(&g.noColor, "no-color", getEnvBool("HITDRAFT_NO_COLOR", false), "Disable colored output (env: HITDRAFT_NO_COLOR)")
	pf.BoolVarP(&g.verbose, "verbose", "v", getEnvBool("HITDRAFT_VERBOSE", false), "Show headers and debug logs (env: HITDRAFT_VERBOSE)")

	rootCmd.AddCommand(newSendCmd(g))
	rootCmd.AddCommand(newRunCmd(g))
	rootCmd.AddCommand(newSavedCmd(g))
	rootCmd.AddCommand(newImportCmd(g))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	os.Exit(run(newRootCmd(), os.Args[1:], os.Stderr))
}

// run executes rootCmd with args and reports any error to stderr.
func run(rootCmd *cobra.Command, args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if !errors.As(err, &ee) || !ee.silent {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(stderr, "Run 'hitdraft saved list' to see valid indexes.")
	}
	return exitCode(err)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
