package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hexpm/hexgo"
	"github.com/hexpm/hexgo/files"
	"github.com/hexpm/hexgo/tarball"
)

type packageCmd struct {
	cmd    *cobra.Command
	config string
	target string
}

func newPackageCmd() *packageCmd {
	root := &packageCmd{}
	cmd := &cobra.Command{
		Use:           "package",
		Aliases:       []string{"pkg", "p", "build"},
		Short:         "Creates a package tarball based on the given config file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return doPackage(root.config, root.target)
		},
	}

	cmd.Flags().StringVarP(&root.config, "config", "f", "hex.yaml", "config file to be used")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")
	cmd.Flags().StringVarP(&root.target, "target", "t", "", "where to save the generated tarball (filename, folder or empty for current folder)")
	_ = cmd.MarkFlagFilename("target")

	root.cmd = cmd
	return root
}

func doPackage(configPath, target string) error {
	config, err := hexgo.ParseFile(configPath)
	if err != nil {
		return err
	}

	fileList, err := files.Expand(config.Files)
	if err != nil {
		return err
	}
	meta, err := config.Metadata(fileList)
	if err != nil {
		return err
	}

	entries := make([]tarball.File, len(fileList))
	for i, name := range fileList {
		entries[i] = tarball.File{Name: name}
	}
	pkg, err := tarball.Create(meta, entries)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%s.tar", config.Name, config.Version)
	if target == "" {
		target = name
	} else if stat, err := os.Stat(target); err == nil && stat.IsDir() {
		target = filepath.Join(target, name)
	}

	if err := os.WriteFile(target, pkg.Data, 0o644); err != nil {
		return err
	}
	fmt.Printf("created package: %s\n", target)
	fmt.Printf("checksum: %s\n", tarball.EncodeChecksum(pkg.OuterChecksum))
	return nil
}
