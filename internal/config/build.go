package config

import (
	"fmt"
	"path/filepath"

	"github.com/oshokin/release-publisher/internal/domain/release"
)

// Filters narrow the configuration for one command invocation.
type Filters struct {
	// Sha overrides the commit resolved from git.
	Sha string
	// Targets restricts the configured targets; empty keeps all of them.
	Targets []release.Target
	// Xz enables .tar.xz on top of the configuration value.
	Xz bool
}

// BuildConfig is the resolved, read-only configuration of one run.
type BuildConfig struct {
	// Root is the project root the configuration was loaded from.
	Root string
	// Binary is the binary name and version from the configuration.
	Binary Binary
	// Storage is the object-storage destination.
	Storage Storage
	// Sha is the short commit SHA of the build.
	Sha string
	// Targets are the targets this run works on.
	Targets []release.Target
	// Xz reports whether .tar.xz artifacts are handled.
	Xz bool

	// distDir is the packaging output directory relative to Root.
	distDir string
}

// Resolve loads the configuration under root and applies the filters. An empty
// path means DefaultConfigFilename inside root.
func Resolve(root, path string, filters Filters) (*BuildConfig, error) {
	if root == "" {
		root = "."
	}

	if path == "" {
		path = filepath.Join(root, DefaultConfigFilename)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	targets, err := cfg.ParsedTargets()
	if err != nil {
		return nil, err
	}

	targets, err = release.Filter(targets, filters.Targets)
	if err != nil {
		return nil, fmt.Errorf("filter targets: %w", err)
	}

	sha := filters.Sha
	if sha == "" {
		sha, err = ResolveShortSHA(root)
		if err != nil {
			return nil, err
		}
	}

	return &BuildConfig{
		Root:    root,
		Binary:  cfg.Binary,
		Storage: cfg.Storage,
		Sha:     sha,
		Targets: targets,
		Xz:      cfg.Xz || filters.Xz,
		distDir: cfg.DistDir,
	}, nil
}

// Identity returns the release identity of the resolved build.
func (b *BuildConfig) Identity() release.Identity {
	return release.Identity{
		Bin:     b.Binary.Name,
		Version: b.Binary.Version,
		Sha:     b.Sha,
	}
}

// Dist joins path elements onto the local distribution directory.
func (b *BuildConfig) Dist(elem ...string) string {
	return filepath.Join(append([]string{b.Root, b.distDir}, elem...)...)
}
