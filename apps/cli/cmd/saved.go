package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/spf13/cobra"
)

var nowFunc = time.Now

func newSavedCmd(g *globalFlags) *cobra.Command {
	savedCmd := &cobra.Command{
		Use:     "saved",
		Aliases: []string{"s"},
		Short:   "Manage saved requests",
		Long: `List, inspect, send, export and delete saved requests.

Saved requests are addressed by their index in 'hitdraft saved list'.
Deleting a request shifts the ones after it down by one.

Examples:
  hitdraft saved list
  hitdraft saved show 0
  hitdraft saved send 0 --env-file .env
  hitdraft saved export 0 -o create-user.yaml
  hitdraft saved delete 0`,
	}

	savedCmd.AddCommand(newSavedListCmd(g))
	savedCmd.AddCommand(newSavedShowCmd(g))
	savedCmd.AddCommand(newSavedSendCmd(g))
	savedCmd.AddCommand(newSavedDeleteCmd(g))
	savedCmd.AddCommand(newSavedExportCmd(g))

	return savedCmd
}

func newSavedListCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved requests",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				formatter, err := a.formatter(format, "", false)
				if err != nil {
					return err
				}
				st, err := a.openStore()
				if err != nil {
					return err
				}
				list, err := st.List()
				if err != nil {
					return err
				}
				formatter.FormatSaved(list)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", getEnvString("HITDRAFT_OUTPUT", "console"), "Output format: console, json (env: HITDRAFT_OUTPUT)")
	return cmd
}

func newSavedShowCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <index>",
		Short: "Show a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(a *app) error {
				formatter, err := a.formatter(format, "", false)
				if err != nil {
					return err
				}
				s, err := savedAt(a, index)
				if err != nil {
					return err
				}
				formatter.FormatSavedDetail(index, s)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", getEnvString("HITDRAFT_OUTPUT", "console"), "Output format: console, json (env: HITDRAFT_OUTPUT)")
	return cmd
}

func newSavedSendCmd(g *globalFlags) *cobra.Command {
	o := &responseOptions{}

	cmd := &cobra.Command{
		Use:   "send <index>",
		Short: "Load a saved request and send it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(a *app) error {
				st, err := a.openStore()
				if err != nil {
					return err
				}
				d, err := st.Load(index)
				if err != nil {
					return err
				}
				return sendDraft(cmd, a, d, o)
			})
		},
	}

	o.register(cmd)
	return cmd
}

func newSavedDeleteCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <index>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved request",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(a *app) error {
				s, err := savedAt(a, index)
				if err != nil {
					return err
				}
				if err := a.store.Delete(index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Deleted #%d %q\n", index, s.Name)
				return nil
			})
		},
	}
	return cmd
}

func newSavedExportCmd(g *globalFlags) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <index>",
		Short: "Write a saved request as a draft file",
		Long: `Write a saved request as a YAML draft file that 'hitdraft run' can send.

Examples:
  hitdraft saved export 0
  hitdraft saved export 0 -o create-user.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(a *app) error {
				s, err := savedAt(a, index)
				if err != nil {
					return err
				}
				if outputPath == "" {
					content, err := encodeDrafts([]imported{{name: s.Name, draft: s.Draft}})
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(content)
					return err
				}
				if err := draft.WriteFile(outputPath, s.Draft); err != nil {
					return fmt.Errorf("failed to write %s: %w", outputPath, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported #%d to %s\n", index, outputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func savedAt(a *app, index int) (draft.Saved, error) {
	st, err := a.openStore()
	if err != nil {
		return draft.Saved{}, err
	}
	return st.Get(index)
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, &draft.InputError{Field: "index", Message: fmt.Sprintf("expected a non-negative index, got %q", s)}
	}
	return index, nil
}
