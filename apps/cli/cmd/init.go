package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/config"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new hitdraft project",
		Long: `Initialize a new hitdraft project in the current directory.

This creates:
  - .hitdraft.json  - Configuration file with default headers and variables
  - example.yaml    - Example draft file

Examples:
  hitdraft init
  hitdraft init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			return initProject(cmd, cwd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}

func initProject(cmd *cobra.Command, dir string, force bool) error {
	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	exampleFile := filepath.Join(dir, "example.yaml")

	if !force {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"Accept": "application/json",
	}
	cfg.Variables = map[string]any{
		"baseUrl": "https://jsonplaceholder.typicode.com",
	}
	cfg.Store = config.StoreConfig{
		Driver: "file",
		Path:   ".hitdraft/saved.yaml",
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	example := draft.Draft{
		Method: draft.MethodPost,
		URL:    "{{baseUrl}}/posts",
		QueryParams: draft.Entries{
			{Key: "source", Value: "hitdraft", Enabled: true},
		},
		Headers: draft.Entries{
			{Key: "X-Request-Id", Value: "{{$uuid()}}", Enabled: true},
			{Key: "X-Debug", Value: "1", Enabled: false},
		},
		Body: "{\n  \"title\": \"hello\",\n  \"body\": \"sent by hitdraft\",\n  \"userId\": 1\n}\n",
	}
	if err := draft.WriteFile(exampleFile, example); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitdraft project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitdraft run example.yaml' to send the example request.\n")

	return nil
}
