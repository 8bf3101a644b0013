package hexgo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// PackageConfig is the top level configuration for building a package
// tarball, usually parsed from a hex.yaml file.
type PackageConfig struct {
	Name         string                 `yaml:"name" json:"name" jsonschema:"title=package name"`
	Version      string                 `yaml:"version" json:"version" jsonschema:"title=package version,example=1.0.0"`
	Description  string                 `yaml:"description,omitempty" json:"description,omitempty"`
	App          string                 `yaml:"app,omitempty" json:"app,omitempty" jsonschema:"title=application name when it differs from the package name"`
	Licenses     []string               `yaml:"licenses,omitempty" json:"licenses,omitempty" jsonschema:"title=SPDX license identifiers"`
	Links        map[string]string      `yaml:"links,omitempty" json:"links,omitempty"`
	Maintainers  []string               `yaml:"maintainers,omitempty" json:"maintainers,omitempty"`
	BuildTools   []string               `yaml:"build_tools,omitempty" json:"build_tools,omitempty" jsonschema:"title=build tools,description=guessed from the file list when empty"`
	Files        []string               `yaml:"files,omitempty" json:"files,omitempty" jsonschema:"title=glob patterns of files to package"`
	Requirements map[string]Requirement `yaml:"requirements,omitempty" json:"requirements,omitempty"`
	Extra        map[string]string      `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Requirement is a dependency of a package.
type Requirement struct {
	Requirement string `yaml:"requirement" json:"requirement" jsonschema:"title=version requirement,example=~> 1.0"`
	Optional    bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
	App         string `yaml:"app,omitempty" json:"app,omitempty"`
	Repository  string `yaml:"repository,omitempty" json:"repository,omitempty"`
}

// ErrFieldEmpty happens when a required configuration field is empty.
type ErrFieldEmpty struct {
	field string
}

func (e ErrFieldEmpty) Error() string {
	return fmt.Sprintf("package %s must be provided", e.field)
}

// Parse decodes YAML data from an io.Reader into a PackageConfig.
func Parse(in io.Reader) (config PackageConfig, err error) {
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err = dec.Decode(&config); err != nil {
		return
	}
	return config, config.Validate()
}

// ParseFile decodes YAML data from a file path into a PackageConfig.
func ParseFile(path string) (config PackageConfig, err error) {
	if path == "-" {
		return Parse(os.Stdin)
	}
	var file *os.File
	file, err = os.Open(path) //nolint:gosec
	if err != nil {
		return
	}
	defer file.Close() // nolint: errcheck,gosec
	return Parse(file)
}

// Validate checks the configuration for the fields the registry requires.
func (c *PackageConfig) Validate() error {
	if c.Name == "" {
		return ErrFieldEmpty{"name"}
	}
	if c.Version == "" {
		return ErrFieldEmpty{"version"}
	}
	if _, err := semver.StrictNewVersion(c.Version); err != nil {
		return fmt.Errorf("invalid version %q: %w", c.Version, err)
	}
	if len(c.Requirements) > 0 {
		for name, req := range c.Requirements {
			if req.Requirement == "" {
				return fmt.Errorf("requirement %s has no version requirement", name)
			}
		}
	}
	return nil
}

// Metadata builds the metadata mapping stored in the tarball's
// metadata.config from the configuration. The files value must be the
// expanded file list, not the raw glob patterns.
func (c *PackageConfig) Metadata(files []string) (map[string]any, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 && len(c.Files) > 0 {
		return nil, errors.New("file patterns matched no files")
	}

	meta := map[string]any{
		"name":    c.Name,
		"version": c.Version,
	}
	if c.Description != "" {
		meta["description"] = c.Description
	}
	if c.App != "" {
		meta["app"] = c.App
	}
	if len(c.Licenses) > 0 {
		meta["licenses"] = toAnySlice(c.Licenses)
	}
	if len(c.Maintainers) > 0 {
		meta["maintainers"] = toAnySlice(c.Maintainers)
	}
	if len(c.BuildTools) > 0 {
		meta["build_tools"] = toAnySlice(c.BuildTools)
	}
	if len(c.Links) > 0 {
		meta["links"] = toAnyMap(c.Links)
	}
	if len(c.Extra) > 0 {
		meta["extra"] = toAnyMap(c.Extra)
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	meta["files"] = toAnySlice(sorted)

	if len(c.Requirements) > 0 {
		reqs := make(map[string]any, len(c.Requirements))
		for name, req := range c.Requirements {
			entry := map[string]any{
				"requirement": req.Requirement,
				"optional":    req.Optional,
			}
			entry["app"] = req.App
			if req.App == "" {
				entry["app"] = name
			}
			if req.Repository != "" {
				entry["repository"] = req.Repository
			}
			reqs[name] = entry
		}
		meta["requirements"] = reqs
	}
	return meta, nil
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func toAnyMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
