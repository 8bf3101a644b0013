package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type initCmd struct {
	cmd    *cobra.Command
	config string
}

func newInitCmd() *initCmd {
	root := &initCmd{}
	cmd := &cobra.Command{
		Use:           "init",
		Aliases:       []string{"i"},
		Short:         "Creates a sample hex.yaml config file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := os.WriteFile(root.config, []byte(example), 0o666); err != nil {
				return fmt.Errorf("failed to create example file: %w", err)
			}
			fmt.Printf("created config file: %s\n", root.config)
			return nil
		},
	}

	cmd.Flags().StringVarP(&root.config, "config", "f", "hex.yaml", "path to the to-be-created config file")

	root.cmd = cmd
	return root
}

const example = `# hex example config file
name: "foo"
version: "1.0.0"
description: "Foo does things"
licenses:
- Apache-2.0
links:
  GitHub: https://github.com/example/foo
files:
- mix.exs
- lib/**/*.ex
requirements:
  decimal:
    requirement: "~> 2.0"
`
