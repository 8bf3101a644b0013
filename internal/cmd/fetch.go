package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/hexpm/hexgo"
	"github.com/hexpm/hexgo/registry"
	"github.com/hexpm/hexgo/tarball"
)

type fetchCmd struct {
	cmd     *cobra.Command
	repo    string
	keyFile string
	target  string
}

func newFetchCmd() *fetchCmd {
	root := &fetchCmd{}
	cmd := &cobra.Command{
		Use:           "fetch [package] [version]",
		Short:         "Downloads a package tarball and verifies it against the registry checksum",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doFetch(cmd.Context(), root, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&root.repo, "repo", "r", hexgo.HexPMRepoURI, "repository base URL")
	cmd.Flags().StringVarP(&root.keyFile, "public-key", "k", "", "PEM file with the repository public key (defaults to the hex.pm key)")
	_ = cmd.MarkFlagFilename("public-key", "pem")
	cmd.Flags().StringVarP(&root.target, "target", "t", "", "where to save the tarball (empty for <package>-<version>.tar)")
	_ = cmd.MarkFlagFilename("target")

	root.cmd = cmd
	return root
}

func doFetch(ctx context.Context, root *fetchCmd, name, version string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := hexgo.WithDefaults(&hexgo.Config{RepoURI: root.repo})
	if root.keyFile != "" {
		key, err := os.ReadFile(root.keyFile) //nolint:gosec
		if err != nil {
			return err
		}
		cfg.RepoPublicKey = key
	}

	pkg, err := registry.GetPackage(ctx, cfg, name)
	if err != nil {
		return err
	}
	if pkg.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching package %s: unexpected status %d", name, pkg.StatusCode)
	}
	var declared []byte
	for _, release := range pkg.Package.Releases {
		if release.Version == version {
			declared = release.Checksum
			break
		}
	}
	if declared == nil {
		return fmt.Errorf("package %s has no release %s", name, version)
	}

	resp, err := registry.GetTarball(ctx, cfg, name, version)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching tarball: unexpected status %d", resp.StatusCode)
	}
	if err := registry.VerifyTarball(resp.Body, declared); err != nil {
		return err
	}

	target := root.target
	if target == "" {
		target = fmt.Sprintf("%s-%s.tar", name, version)
	}
	if err := os.WriteFile(target, resp.Body, 0o644); err != nil {
		return err
	}
	fmt.Printf("fetched package: %s\n", target)
	fmt.Printf("checksum: %s\n", tarball.EncodeChecksum(declared))
	return nil
}
