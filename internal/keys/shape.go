package keys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/release-publisher/internal/domain/release"
)

// Shape names one key template.
type Shape string

// Short-key shapes, filename only.
const (
	ShapeVersioned   Shape = "versioned"
	ShapeUnversioned Shape = "unversioned"
	ShapeManifest    Shape = "manifest"
	ShapeMacOS       Shape = "macos"
	ShapeWin32       Shape = "win32"
	ShapeDeb         Shape = "deb"
	ShapeBaseDir     Shape = "baseDir"
)

// Directory-scoped shapes. The builtin scheme derives them from the short keys;
// custom templates have to spell them out.
const (
	ShapeChannelManifest Shape = "channelManifest"
	ShapeChannelFile     Shape = "channelFile"
	ShapeCommitFile      Shape = "commitFile"
)

// Tarball extensions.
const (
	ExtTarGz = ".tar.gz"
	ExtTarXz = ".tar.xz"
)

var (
	// ErrInvalidArch is returned when an architecture has no Debian name.
	ErrInvalidArch = errors.New("invalid architecture")

	errUnknownShape = errors.New("unknown key shape")
	errMissingParam = errors.New("missing key parameter")
)

// Params is the full parameter set a shape can reference.
type Params struct {
	// Bin is the binary name.
	Bin string
	// Version is the semantic version.
	Version string
	// Sha is the short commit SHA.
	Sha string
	// Platform is the target platform.
	Platform string
	// Arch is the target architecture (already mapped for deb).
	Arch string
	// Ext is the tarball extension, ".tar.gz" when empty.
	Ext string
	// VersionShaRevision is the Debian version string, see DebVersion.
	VersionShaRevision string
	// Channel is the release channel for channel-scoped shapes.
	Channel string
	// Filename is the short key placed by ShapeChannelFile and ShapeCommitFile.
	Filename string
}

// ParamsFor fills Params from a release identity and target.
func ParamsFor(id release.Identity, target release.Target, ext string) Params {
	return Params{
		Bin:      id.Bin,
		Version:  id.Version,
		Sha:      id.Sha,
		Platform: target.Platform,
		Arch:     target.Arch,
		Ext:      ext,
	}
}

// withDefaults returns a copy with the default extension applied.
func (p Params) withDefaults() Params {
	if p.Ext == "" {
		p.Ext = ExtTarGz
	}

	return p
}

// vars exposes the params under the names templates use.
func (p Params) vars() map[string]string {
	return map[string]string{
		"bin":                p.Bin,
		"version":            p.Version,
		"sha":                p.Sha,
		"platform":           p.Platform,
		"arch":               p.Arch,
		"ext":                p.Ext,
		"versionShaRevision": p.VersionShaRevision,
		"channel":            p.Channel,
		"filename":           p.Filename,
	}
}

// versionSha is the fragment that Strip removes again.
func (p Params) versionSha() string {
	return release.Identity{Bin: p.Bin, Version: p.Version, Sha: p.Sha}.VersionSha()
}

// require checks that the named params are non-empty.
func (p Params) require(shape Shape, names ...string) error {
	values := p.vars()

	for _, name := range names {
		if values[name] == "" {
			return errMissing(shape, name)
		}
	}

	return nil
}

// DebArch maps a build architecture to its Debian name.
func DebArch(arch string) (string, error) {
	switch arch {
	case release.ArchX64:
		return "amd64", nil
	case release.ArchX86:
		return "i386", nil
	case release.ArchArm:
		return "armel", nil
	case release.ArchArm64:
		return "arm64", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidArch, arch)
	}
}

// DebVersion returns "<version without prerelease>.<sha>-1".
func DebVersion(version, sha string) string {
	base, _, _ := strings.Cut(version, "-")

	return base + "." + sha + "-1"
}

// DebParams prepares Params for ShapeDeb with the architecture mapped.
func DebParams(id release.Identity, arch string) (Params, error) {
	debArch, err := DebArch(arch)
	if err != nil {
		return Params{}, err
	}

	return Params{
		Bin:                id.Bin,
		Version:            id.Version,
		Sha:                id.Sha,
		Arch:               debArch,
		VersionShaRevision: DebVersion(id.Version, id.Sha),
	}, nil
}

// Strip removes the first "-v<version>-<sha>" from a versioned filename. The
// result is the unversioned name that promotion copies to. A bin or version
// that repeats the fragment elsewhere is not guarded against.
func Strip(name, version, sha string) string {
	return strings.Replace(name, release.Identity{Version: version, Sha: sha}.VersionSha(), "", 1)
}

// CommitDir returns "[folder/]versions/<version>/<sha>".
func CommitDir(version, sha, folder string) string {
	return withFolder(folder, "versions/"+version+"/"+sha)
}

// ChannelDir returns "[folder/]channels/<channel>".
func ChannelDir(channel, folder string) string {
	return withFolder(folder, "channels/"+channel)
}

// withFolder joins folder and dir with exactly one separator.
func withFolder(folder, dir string) string {
	folder = strings.TrimRight(folder, "/")
	if folder == "" {
		return dir
	}

	return folder + "/" + dir
}
