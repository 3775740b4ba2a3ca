package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/import/curl"
	"github.com/abdul-hamid-achik/hitdraft/packages/import/insomnia"
	"github.com/abdul-hamid-achik/hitdraft/packages/import/postman"
	"github.com/spf13/cobra"
)

// imported is one request produced by an importer.
type imported struct {
	name  string
	draft draft.Draft
}

type importOptions struct {
	output string
	save   bool
	name   string
}

func (o *importOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write the draft YAML to this file (default: stdout)")
	cmd.Flags().BoolVar(&o.save, "save", false, "Add the imported requests to the saved-request store")
}

func newImportCmd(g *globalFlags) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import <format> <source>",
		Short: "Import requests from other tools",
		Long: `Import requests from other tools and convert them to hitdraft drafts.

Supported formats:
  curl     - a curl command line, or a file of them with --file
  insomnia - Insomnia v4 export (JSON)
  postman  - Postman Collection v2.1

Examples:
  hitdraft import curl 'curl -X POST https://api.example.com/users -d "{}"'
  hitdraft import curl --file requests.sh --save
  hitdraft import insomnia export.json -o drafts.yaml
  hitdraft import postman collection.json --save`,
	}

	importCmd.AddCommand(newImportCurlCmd(g))
	importCmd.AddCommand(newImportFileCmd(g, "insomnia", "Import from an Insomnia export", func(path string) ([]imported, error) {
		reqs, err := insomnia.NewConverter().ConvertFile(path)
		if err != nil {
			return nil, err
		}
		out := make([]imported, len(reqs))
		for i, r := range reqs {
			out[i] = imported{name: r.Name, draft: r.Draft}
		}
		return out, nil
	}))
	importCmd.AddCommand(newImportFileCmd(g, "postman", "Import from a Postman collection", func(path string) ([]imported, error) {
		reqs, err := postman.ConvertFile(path)
		if err != nil {
			return nil, err
		}
		out := make([]imported, len(reqs))
		for i, r := range reqs {
			out[i] = imported{name: r.Name, draft: r.Draft}
		}
		return out, nil
	}))

	return importCmd
}

func newImportCurlCmd(g *globalFlags) *cobra.Command {
	o := &importOptions{}
	var file string

	cmd := &cobra.Command{
		Use:   "curl [command]",
		Short: "Import a curl command",
		Long: `Convert a curl command line into a draft.

The command can be passed quoted as one argument, or after -- as separate
arguments. With --file, every curl command in the file is converted;
commands may span lines with trailing backslashes.

Examples:
  hitdraft import curl 'curl -H "Accept: application/json" https://api.example.com/users?page=2'
  hitdraft import curl -- curl -X DELETE https://api.example.com/users/1
  hitdraft import curl --file requests.sh --save --name "from shell"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			converter := curl.NewConverter()

			var parsed []*curl.Parsed
			switch {
			case file != "":
				p, err := converter.ParseFile(file)
				if err != nil {
					return withExitCode(ExitParseError, err)
				}
				parsed = p
			case len(args) > 0:
				p, err := converter.Parse(strings.Join(args, " "))
				if err != nil {
					return withExitCode(ExitParseError, err)
				}
				parsed = []*curl.Parsed{p}
			default:
				return withExitCode(ExitUsageError, fmt.Errorf("pass a curl command or --file"))
			}

			reqs := make([]imported, len(parsed))
			for i, p := range parsed {
				reqs[i] = imported{name: p.Name, draft: p.Draft}
			}
			return withApp(cmd, g, func(a *app) error {
				return finishImport(cmd, a, reqs, o)
			})
		},
	}

	o.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read curl commands from a file")
	cmd.Flags().StringVar(&o.name, "name", "", "Name for saved requests (default: derived from method and path)")

	return cmd
}

func newImportFileCmd(g *globalFlags, format, short string, convert func(path string) ([]imported, error)) *cobra.Command {
	o := &importOptions{}

	cmd := &cobra.Command{
		Use:   format + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := convert(args[0])
			if err != nil {
				return withExitCode(ExitParseError, fmt.Errorf("failed to convert %s file: %w", format, err))
			}
			return withApp(cmd, g, func(a *app) error {
				return finishImport(cmd, a, reqs, o)
			})
		},
	}

	o.register(cmd)
	return cmd
}

// finishImport saves and writes the imported requests as the flags ask.
func finishImport(cmd *cobra.Command, a *app, reqs []imported, o *importOptions) error {
	if len(reqs) == 0 {
		return withExitCode(ExitParseError, fmt.Errorf("no requests found"))
	}

	if o.save {
		st, err := a.openStore()
		if err != nil {
			return err
		}
		for _, r := range reqs {
			name := r.name
			if o.name != "" {
				name = o.name
			}
			saved, err := draft.NewSaved(name, r.draft, nowFunc())
			if err != nil {
				return err
			}
			if err := st.Save(saved); err != nil {
				return fmt.Errorf("failed to save %q: %w", name, err)
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d request(s)\n", len(reqs))
		if o.output == "" {
			return nil
		}
	}

	content, err := encodeDrafts(reqs)
	if err != nil {
		return err
	}

	if o.output == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}

	if dir := filepath.Dir(o.output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(o.output, content, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Successfully imported to %s\n", o.output)
	return nil
}

// encodeDrafts writes one YAML document per request, each headed by its
// name as a comment.
func encodeDrafts(reqs []imported) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range reqs {
		if i > 0 {
			buf.WriteString("---\n")
		}
		data, err := draft.Marshal(r.draft)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "# %s\n", r.name)
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
