package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fluxcd/pkg/envsubst"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/keys"
)

// Config is the build configuration file read from the project root.
type Config struct {
	// Binary describes the CLI being published.
	Binary Binary `yaml:"binary"`
	// DistDir is the packaging output directory, relative to the root.
	DistDir string `yaml:"dist_dir"`
	// Targets lists "platform-arch" pairs; DefaultTargets apply when empty.
	Targets []string `yaml:"targets"`
	// Xz enables .tar.xz artifacts in addition to .tar.gz.
	Xz bool `yaml:"xz"`
	// Storage is the object-storage destination.
	Storage Storage `yaml:"storage"`
}

// Binary names and versions the published CLI.
type Binary struct {
	// Name is the binary name used in every key.
	Name string `yaml:"name"`
	// Version is the semantic version of the current build.
	Version string `yaml:"version"`
}

// Storage holds the object-storage settings.
type Storage struct {
	// Backend is "s3" (default), "gcs" or "file".
	Backend string `yaml:"backend"`
	// Bucket is the destination bucket.
	Bucket string `yaml:"bucket"`
	// Folder is an optional key prefix.
	Folder string `yaml:"folder"`
	// ACL is the canned ACL applied to every object.
	ACL string `yaml:"acl"`
	// Host is the public host objects are served from, used for index URLs.
	Host string `yaml:"host"`
	// Region is the bucket region (S3 only).
	Region string `yaml:"region"`
	// Endpoint overrides the service endpoint (S3-compatible stores, emulators).
	Endpoint string `yaml:"endpoint"`
	// PathStyle forces path-style S3 addressing.
	PathStyle bool `yaml:"path_style"`
	// AccessKeyID pins static S3 credentials; the default chain applies when empty.
	AccessKeyID string `yaml:"access_key_id"`
	// SecretAccessKey pairs with AccessKeyID.
	SecretAccessKey string `yaml:"secret_access_key"`
	// Directory is the mirror root of the file backend; objects land under Directory/Bucket.
	Directory string `yaml:"directory"`
	// Templates replace the builtin key scheme when set.
	Templates keys.Templates `yaml:"templates"`
}

const (
	// DefaultConfigFilename is the configuration file looked up in the root.
	DefaultConfigFilename = "release-publisher.yaml"

	// DefaultDistDir is where the packaging step leaves artifacts.
	DefaultDistDir = "dist"

	// DefaultACL is applied when the storage section sets none.
	DefaultACL = "public-read"

	// BackendS3 selects Amazon S3 or an S3-compatible store.
	BackendS3 = "s3"
	// BackendGCS selects Google Cloud Storage.
	BackendGCS = "gcs"
	// BackendFile mirrors the bucket into a local directory.
	BackendFile = "file"
)

var (
	// ErrBucketRequired is returned when a command needs a bucket and none is configured.
	ErrBucketRequired = errors.New("cannot determine storage bucket")
	// ErrVersionRequired is returned when no release version is known.
	ErrVersionRequired = errors.New("release version must be provided")

	errConfigIsNotSet     = errors.New("configuration is not set")
	errBinaryNameRequired = errors.New("binary name must be provided")
	errUnknownBackend     = errors.New("unknown storage backend")
	errDirectoryRequired  = errors.New("file backend requires storage.directory")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.Binary.Name = strings.TrimSpace(cfg.Binary.Name)
	if cfg.Binary.Name == "" {
		return errBinaryNameRequired
	}

	if cfg.Binary.Version != "" {
		if err := ValidateVersion(cfg.Binary.Version); err != nil {
			return err
		}
	}

	if cfg.DistDir == "" {
		cfg.DistDir = DefaultDistDir
	}

	if _, err := cfg.ParsedTargets(); err != nil {
		return err
	}

	return validateStorage(&cfg.Storage)
}

// validateStorage fills storage defaults and checks the backend name.
func validateStorage(storage *Storage) error {
	storage.Backend = strings.ToLower(strings.TrimSpace(storage.Backend))

	switch storage.Backend {
	case "":
		storage.Backend = BackendS3
	case BackendS3, BackendGCS, BackendFile:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, storage.Backend)
	}

	if storage.ACL == "" {
		storage.ACL = DefaultACL
	}

	if err := expandStorageEnv(storage); err != nil {
		return err
	}

	if storage.Backend == BackendFile && strings.TrimSpace(storage.Directory) == "" {
		return errDirectoryRequired
	}

	return nil
}

// expandStorageEnv resolves ${VAR} references in the fields that commonly
// come from the CI environment. Key templates are left alone.
func expandStorageEnv(storage *Storage) error {
	fields := []*string{
		&storage.Bucket,
		&storage.Host,
		&storage.Endpoint,
		&storage.AccessKeyID,
		&storage.SecretAccessKey,
		&storage.Directory,
	}

	for _, field := range fields {
		expanded, err := envsubst.EvalEnv(*field, false)
		if err != nil {
			return fmt.Errorf("expand storage settings: %w", err)
		}

		*field = expanded
	}

	return nil
}

// ValidateVersion requires a strict semantic version without a "v" prefix,
// since keys already add one.
func ValidateVersion(v string) error {
	if v == "" {
		return ErrVersionRequired
	}

	if _, err := semver.StrictNewVersion(v); err != nil {
		return fmt.Errorf("invalid version %q: %w", v, err)
	}

	return nil
}

// RequireBucket fails with ErrBucketRequired when no bucket is configured.
func (s Storage) RequireBucket() error {
	if strings.TrimSpace(s.Bucket) == "" {
		return ErrBucketRequired
	}

	return nil
}

// Layout returns the key layout for the storage settings.
func (s Storage) Layout() keys.Layout {
	return keys.Layout{
		Folder:    s.Folder,
		Templates: s.Templates,
	}
}

// ParsedTargets returns the configured targets, or DefaultTargets when none are set.
func (c *Config) ParsedTargets() ([]release.Target, error) {
	if len(c.Targets) == 0 {
		return append([]release.Target(nil), release.DefaultTargets...), nil
	}

	targets := make([]release.Target, 0, len(c.Targets))

	for _, item := range c.Targets {
		target, err := release.ParseTarget(item)
		if err != nil {
			return nil, fmt.Errorf("config targets: %w", err)
		}

		targets = append(targets, target)
	}

	return release.Unique(targets), nil
}
