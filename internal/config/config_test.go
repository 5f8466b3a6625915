package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/keys"
)

// sampleConfig is a complete configuration file.
const sampleConfig = `binary:
  name: mycli
  version: 1.2.3
targets:
  - linux-x64
  - darwin-arm64
storage:
  bucket: releases
  folder: cli/
  host: cdn.example.com
  templates:
    vanilla:
      baseDir: "${bin}"
`

// writeConfig writes contents to release-publisher.yaml in dir.
func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()

	path := filepath.Join(dir, DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestValidate checks required fields and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(new(Config)))

	cfg := &Config{Binary: Binary{Name: "mycli"}}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultDistDir, cfg.DistDir)
	require.Equal(t, BackendS3, cfg.Storage.Backend)
	require.Equal(t, DefaultACL, cfg.Storage.ACL)

	cfg = &Config{Binary: Binary{Name: "mycli", Version: "v1.2.3"}}
	require.Error(t, Validate(cfg))

	cfg = &Config{Binary: Binary{Name: "mycli"}, Storage: Storage{Backend: "ftp"}}
	require.ErrorIs(t, Validate(cfg), errUnknownBackend)

	cfg = &Config{Binary: Binary{Name: "mycli"}, Storage: Storage{Backend: "FILE"}}
	require.ErrorIs(t, Validate(cfg), errDirectoryRequired)

	cfg = &Config{Binary: Binary{Name: "mycli"}, Storage: Storage{Backend: "file", Directory: "mirror"}}
	require.NoError(t, Validate(cfg))
	require.Equal(t, BackendFile, cfg.Storage.Backend)

	cfg = &Config{Binary: Binary{Name: "mycli"}, Targets: []string{"linux"}}
	require.Error(t, Validate(cfg))
}

// TestValidateVersion accepts strict semver only.
func TestValidateVersion(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateVersion("1.2.3"))
	require.NoError(t, ValidateVersion("2.0.0-beta.1"))
	require.ErrorIs(t, ValidateVersion(""), ErrVersionRequired)
	require.Error(t, ValidateVersion("1.2"))
	require.Error(t, ValidateVersion("v1.2.3"))
}

// TestLoad parses the sample configuration including templates.
func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mycli", cfg.Binary.Name)
	require.Equal(t, "releases", cfg.Storage.Bucket)
	require.NoError(t, cfg.Storage.RequireBucket())
	require.Equal(t, "${bin}", cfg.Storage.Templates.Vanilla[keys.ShapeBaseDir])
	require.False(t, cfg.Storage.Layout().Templates.IsEmpty())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestValidate_ExpandsStorageEnv resolves environment references in credentials
// without touching key templates.
func TestValidate_ExpandsStorageEnv(t *testing.T) {
	t.Setenv("RELEASE_PUBLISHER_TEST_BUCKET", "ci-releases")
	t.Setenv("RELEASE_PUBLISHER_TEST_SECRET", "s3cr3t")

	cfg := &Config{
		Binary: Binary{Name: "mycli"},
		Storage: Storage{
			Bucket:          "${RELEASE_PUBLISHER_TEST_BUCKET}",
			SecretAccessKey: "${RELEASE_PUBLISHER_TEST_SECRET}",
			Templates: keys.Templates{
				Vanilla: map[keys.Shape]string{keys.ShapeBaseDir: "${bin}"},
			},
		},
	}

	require.NoError(t, Validate(cfg))
	require.Equal(t, "ci-releases", cfg.Storage.Bucket)
	require.Equal(t, "s3cr3t", cfg.Storage.SecretAccessKey)
	require.Equal(t, "${bin}", cfg.Storage.Templates.Vanilla[keys.ShapeBaseDir])
}

// TestRequireBucket reports the configuration error.
func TestRequireBucket(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Storage{Bucket: "  "}.RequireBucket(), ErrBucketRequired)
}

// TestResolve applies filters and the sha override.
func TestResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, sampleConfig)

	build, err := Resolve(root, "", Filters{
		Sha:     "abc1234",
		Targets: []release.Target{{Platform: "darwin", Arch: "arm64"}},
		Xz:      true,
	})
	require.NoError(t, err)
	require.Equal(t, "abc1234", build.Sha)
	require.True(t, build.Xz)
	require.Equal(t, []release.Target{{Platform: "darwin", Arch: "arm64"}}, build.Targets)
	require.Equal(t, release.Identity{Bin: "mycli", Version: "1.2.3", Sha: "abc1234"}, build.Identity())
	require.Equal(t, filepath.Join(root, "dist", "a", "b"), build.Dist("a", "b"))

	_, err = Resolve(root, "", Filters{Sha: "abc1234", Targets: []release.Target{{Platform: "win32", Arch: "x64"}}})
	require.Error(t, err)
}

// TestResolve_ShaFromGit reads HEAD when no sha is passed.
func TestResolve_ShaFromGit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, sampleConfig)

	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	_, err = worktree.Add(DefaultConfigFilename)
	require.NoError(t, err)

	hash, err := worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Release Bot", Email: "bot@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	build, err := Resolve(root, "", Filters{})
	require.NoError(t, err)
	require.Equal(t, hash.String()[:ShortSHALength], build.Sha)
}

// TestResolveShortSHA_NotARepository asks for --sha outside git.
func TestResolveShortSHA_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := ResolveShortSHA(t.TempDir())
	require.ErrorIs(t, err, errShaRequired)
}
