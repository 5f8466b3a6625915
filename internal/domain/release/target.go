package release

import (
	"errors"
	"fmt"
	"strings"
)

// Known platform names.
const (
	PlatformDarwin = "darwin"
	PlatformLinux  = "linux"
	PlatformWin32  = "win32"
)

// Known architecture names.
const (
	ArchX64   = "x64"
	ArchX86   = "x86"
	ArchArm   = "arm"
	ArchArm64 = "arm64"
)

// errInvalidTarget is returned when a target string is not in platform-arch form.
var errInvalidTarget = errors.New("target must be in platform-arch form")

// Target is one platform/architecture pair a build is produced for.
type Target struct {
	// Platform is the operating system name (darwin, linux, win32, ...).
	Platform string `yaml:"platform"`
	// Arch is the CPU architecture name (x64, x86, arm, arm64, ...).
	Arch string `yaml:"arch"`
}

// DefaultTargets is used when the build configuration lists no targets.
//
//nolint:gochecknoglobals // Read-only table.
var DefaultTargets = []Target{
	{Platform: PlatformLinux, Arch: ArchX64},
	{Platform: PlatformLinux, Arch: ArchArm},
	{Platform: PlatformLinux, Arch: ArchArm64},
	{Platform: PlatformWin32, Arch: ArchX64},
	{Platform: PlatformWin32, Arch: ArchX86},
	{Platform: PlatformWin32, Arch: ArchArm64},
	{Platform: PlatformDarwin, Arch: ArchX64},
	{Platform: PlatformDarwin, Arch: ArchArm64},
}

// ParseTarget parses "platform-arch" (e.g. "linux-x64").
func ParseTarget(s string) (Target, error) {
	platform, arch, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || platform == "" || arch == "" {
		return Target{}, fmt.Errorf("%q: %w", s, errInvalidTarget)
	}

	return Target{Platform: platform, Arch: arch}, nil
}

// ParseTargets parses a comma-separated target list. Empty items are ignored.
func ParseTargets(s string) ([]Target, error) {
	var targets []Target

	for item := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}

		target, err := ParseTarget(item)
		if err != nil {
			return nil, err
		}

		targets = append(targets, target)
	}

	return Unique(targets), nil
}

// Unique drops repeated targets, keeping the first occurrence of each.
func Unique(targets []Target) []Target {
	seen := make(map[Target]struct{}, len(targets))
	result := make([]Target, 0, len(targets))

	for _, target := range targets {
		if _, ok := seen[target]; ok {
			continue
		}

		seen[target] = struct{}{}
		result = append(result, target)
	}

	return result
}

// String returns the "platform-arch" form.
func (t Target) String() string {
	return t.Platform + "-" + t.Arch
}

// IsX86Variant reports whether the architecture name contains "x86".
func (t Target) IsX86Variant() bool {
	return strings.Contains(t.Arch, ArchX86)
}

// UniqueArchs returns the distinct architectures of the targets on the given
// platform, in first-seen order.
func UniqueArchs(targets []Target, platform string) []string {
	seen := make(map[string]struct{}, len(targets))
	archs := make([]string, 0, len(targets))

	for _, target := range targets {
		if target.Platform != platform {
			continue
		}

		if _, ok := seen[target.Arch]; ok {
			continue
		}

		seen[target.Arch] = struct{}{}
		archs = append(archs, target.Arch)
	}

	return archs
}

// Filter returns targets restricted to the wanted list. An empty wanted list
// returns all targets. Unknown wanted targets are reported as an error.
// Repeated targets are kept once.
func Filter(targets, wanted []Target) ([]Target, error) {
	if len(wanted) == 0 {
		return Unique(targets), nil
	}

	available := make(map[Target]struct{}, len(targets))
	for _, target := range targets {
		available[target] = struct{}{}
	}

	result := make([]Target, 0, len(wanted))

	for _, target := range wanted {
		if _, ok := available[target]; !ok {
			return nil, fmt.Errorf("target %s is not configured: %w", target, errUnknownTarget)
		}

		result = append(result, target)
	}

	return Unique(result), nil
}

// errUnknownTarget is returned when a requested target is not in the configuration.
var errUnknownTarget = errors.New("unknown target")
