package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseTarget covers valid and malformed target strings.
func TestParseTarget(t *testing.T) {
	t.Parallel()

	target, err := ParseTarget("linux-x64")
	require.NoError(t, err)
	require.Equal(t, Target{Platform: PlatformLinux, Arch: ArchX64}, target)
	require.Equal(t, "linux-x64", target.String())

	// Only the first dash splits.
	target, err = ParseTarget("linux-arm-v7")
	require.NoError(t, err)
	require.Equal(t, "arm-v7", target.Arch)

	for _, bad := range []string{"", "linux", "-x64", "linux-"} {
		_, err = ParseTarget(bad)
		require.Error(t, err, bad)
	}
}

// TestParseTargets checks comma splitting and whitespace handling.
func TestParseTargets(t *testing.T) {
	t.Parallel()

	targets, err := ParseTargets(" linux-x64, darwin-arm64 ,,")
	require.NoError(t, err)
	require.Equal(t, []Target{
		{Platform: PlatformLinux, Arch: ArchX64},
		{Platform: PlatformDarwin, Arch: ArchArm64},
	}, targets)

	targets, err = ParseTargets("")
	require.NoError(t, err)
	require.Empty(t, targets)

	_, err = ParseTargets("linux-x64,bogus")
	require.Error(t, err)

	targets, err = ParseTargets("linux-x64,darwin-arm64,linux-x64")
	require.NoError(t, err)
	require.Equal(t, []Target{
		{Platform: PlatformLinux, Arch: ArchX64},
		{Platform: PlatformDarwin, Arch: ArchArm64},
	}, targets)
}

// TestUniqueArchs keeps first-seen order and drops other platforms.
func TestUniqueArchs(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Platform: PlatformDarwin, Arch: ArchArm64},
		{Platform: PlatformLinux, Arch: ArchX64},
		{Platform: PlatformDarwin, Arch: ArchX64},
		{Platform: PlatformDarwin, Arch: ArchArm64},
	}

	require.Equal(t, []string{ArchArm64, ArchX64}, UniqueArchs(targets, PlatformDarwin))
	require.Empty(t, UniqueArchs(targets, PlatformWin32))
}

// TestFilter restricts targets and rejects unconfigured ones.
func TestFilter(t *testing.T) {
	t.Parallel()

	all := DefaultTargets

	got, err := Filter(all, nil)
	require.NoError(t, err)
	require.Equal(t, all, got)

	got, err = Filter(all, []Target{{Platform: PlatformWin32, Arch: ArchX86}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].IsX86Variant())

	_, err = Filter(all, []Target{{Platform: "aix", Arch: "ppc64"}})
	require.ErrorIs(t, err, errUnknownTarget)

	linux := Target{Platform: PlatformLinux, Arch: ArchX64}

	got, err = Filter(all, []Target{linux, linux})
	require.NoError(t, err)
	require.Equal(t, []Target{linux}, got)

	got, err = Filter([]Target{linux, linux}, nil)
	require.NoError(t, err)
	require.Equal(t, []Target{linux}, got)
}

// TestIdentityVersionSha checks the fragment used for unversioned names.
func TestIdentityVersionSha(t *testing.T) {
	t.Parallel()

	id := Identity{Bin: "mycli", Version: "1.2.3", Sha: "abc1234"}
	require.Equal(t, "-v1.2.3-abc1234", id.VersionSha())
}

// TestContentType maps every published artifact kind.
func TestContentType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"mycli-v1.2.3-abc1234-linux-x64.tar.gz":        "application/gzip",
		"mycli-v1.2.3-abc1234-linux-x64.tar.xz":        "application/x-xz",
		"mycli-v1.2.3-abc1234-linux-x64-buildmanifest": "application/json",
		"mycli-v1.2.3-abc1234-arm64.pkg":               "application/octet-stream",
		"mycli-v1.2.3-abc1234-x64.exe":                 "application/vnd.microsoft.portable-executable",
		"mycli_1.2.3.abc1234-1_amd64.deb":              "application/vnd.debian.binary-package",
		"Packages.bz2":                                 "application/x-bzip2",
		"InRelease":                                    "text/plain; charset=utf-8",
		"Release.gpg":                                  "application/pgp-signature",
		"unknown":                                      "application/octet-stream",
	}

	for name, want := range tests {
		require.Equal(t, want, ContentType(name), name)
	}
}
