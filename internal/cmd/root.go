package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func Execute(version string, exit func(int), args []string) {
	newRootCmd(version, exit).Execute(args)
}

type rootCmd struct {
	cmd  *cobra.Command
	exit func(int)
}

func (cmd *rootCmd) Execute(args []string) {
	cmd.cmd.SetArgs(args)

	if err := cmd.cmd.Execute(); err != nil {
		fmt.Println(err.Error())
		cmd.exit(1)
	}
}

func newRootCmd(version string, exit func(int)) *rootCmd {
	root := &rootCmd{
		exit: exit,
	}
	cmd := &cobra.Command{
		Use:           "hex",
		Short:         "Builds, verifies and fetches Hex package tarballs based on a YAML configuration file",
		Long:          `hex builds reproducible package tarballs, unpacks and verifies them, and talks to Hex compatible registries.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}

	cmd.AddCommand(
		newInitCmd().cmd,
		newPackageCmd().cmd,
		newUnpackCmd().cmd,
		newFetchCmd().cmd,
		newSchemaCmd().cmd,
	)

	root.cmd = cmd
	return root
}
