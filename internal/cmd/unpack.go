package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hexpm/hexgo/tarball"
)

type unpackCmd struct {
	cmd  *cobra.Command
	dest string
}

func newUnpackCmd() *unpackCmd {
	root := &unpackCmd{}
	cmd := &cobra.Command{
		Use:           "unpack [tarball]",
		Short:         "Unpacks and verifies a package tarball",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return doUnpack(args[0], root.dest)
		},
	}

	cmd.Flags().StringVarP(&root.dest, "destination", "d", "", "directory to extract into (defaults to the tarball name without extension)")
	_ = cmd.MarkFlagDirname("destination")

	root.cmd = cmd
	return root
}

func doUnpack(path, dest string) error {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return err
	}
	if dest == "" {
		dest = strings.TrimSuffix(path, ".tar")
	}

	unpacked, err := tarball.Unpack(data, dest)
	if err != nil {
		return err
	}
	fmt.Printf("unpacked into: %s\n", dest)
	fmt.Printf("checksum: %s\n", tarball.EncodeChecksum(unpacked.OuterChecksum))
	return nil
}
