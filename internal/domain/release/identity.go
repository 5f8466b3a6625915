package release

// Identity identifies one immutable build. Version and Sha together select
// the commit directory in storage.
type Identity struct {
	// Bin is the binary name.
	Bin string
	// Version is the semantic version of the build.
	Version string
	// Sha is the short git commit SHA of the build.
	Sha string
}

// VersionSha returns the "-v<version>-<sha>" fragment that versioned filenames carry.
func (id Identity) VersionSha() string {
	return "-v" + id.Version + "-" + id.Sha
}
