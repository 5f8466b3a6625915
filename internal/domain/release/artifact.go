package release

import "strings"

// Cache policies of published objects.
const (
	// TarballCacheControl is set on uploaded versioned tarballs.
	TarballCacheControl = "max-age=604800"
	// ManifestCacheControl is set on uploaded manifests and installers.
	ManifestCacheControl = "max-age=86400"
	// DefaultPromoteMaxAge is the channel cache lifetime in seconds.
	DefaultPromoteMaxAge = 86400
)

// Local distribution subdirectories holding installers.
const (
	DistMacOS = "macos"
	DistWin32 = "win32"
	DistDeb   = "deb"
)

// AptDir is the repository directory inside commit and channel directories.
const AptDir = "apt"

// AptMetadataFiles are the repository files promoted with Debian packages.
//
//nolint:gochecknoglobals // Read-only table.
var AptMetadataFiles = []string{
	"Packages.gz",
	"Packages.xz",
	"Packages.bz2",
	"Release",
	"InRelease",
	"Release.gpg",
}

// RequiredAptMetadataFiles must be present locally to upload a Debian repository.
//
//nolint:gochecknoglobals // Read-only table.
var RequiredAptMetadataFiles = []string{
	"Packages.gz",
	"Release",
}

// contentTypes maps filename suffixes to MIME types, longest suffix first.
//
//nolint:gochecknoglobals // Read-only table.
var contentTypes = []struct {
	suffix      string
	contentType string
}{
	{".tar.gz", "application/gzip"},
	{".tar.xz", "application/x-xz"},
	{"-buildmanifest", "application/json"},
	{".pkg", "application/octet-stream"},
	{".exe", "application/vnd.microsoft.portable-executable"},
	{".deb", "application/vnd.debian.binary-package"},
	{".gz", "application/gzip"},
	{".xz", "application/x-xz"},
	{".bz2", "application/x-bzip2"},
	{".gpg", "application/pgp-signature"},
	{".jsonl", "application/x-ndjson"},
	{"Release", "text/plain; charset=utf-8"},
}

// ContentType returns the MIME type published with an artifact.
func ContentType(filename string) string {
	for _, entry := range contentTypes {
		if strings.HasSuffix(filename, entry.suffix) {
			return entry.contentType
		}
	}

	return "application/octet-stream"
}
