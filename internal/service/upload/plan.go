package upload

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/oshokin/release-publisher/internal/config"
	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/keys"
	"github.com/oshokin/release-publisher/internal/storage"
)

var (
	// ErrMissingTarball is returned when a target's local tarball does not exist.
	ErrMissingTarball = errors.New("local tarball not found")
	// ErrMissingInstaller is returned when a requested installer does not exist locally.
	ErrMissingInstaller = errors.New("local installer not found")
)

// File is one planned upload.
type File struct {
	// Label names the target or installer kind in logs.
	Label string
	// LocalPath is the file read from the distribution directory.
	LocalPath string
	// Object is the destination object.
	Object storage.Object
}

// Plan lists every upload of a run.
type Plan struct {
	// Files are uploaded concurrently.
	Files []File
	// MissingManifests are build manifests absent locally; their targets lose self-update.
	MissingManifests []string
}

// Installers selects the optional installer uploads.
type Installers struct {
	// MacOS uploads darwin .pkg installers.
	MacOS bool
	// Win uploads win32 .exe installers.
	Win bool
	// Deb uploads Debian packages and repository metadata.
	Deb bool
}

// planner computes uploads for one build.
type planner struct {
	// build is the resolved configuration.
	build *config.BuildConfig
	// builder computes keys.
	builder keys.Builder
	// plan accumulates the result.
	plan Plan
}

// BuildPlan computes every upload and checks local files. No network call is made.
func BuildPlan(build *config.BuildConfig, builder keys.Builder, installers Installers) (*Plan, error) {
	p := &planner{
		build:   build,
		builder: builder,
	}

	for _, target := range build.Targets {
		if err := p.addTarget(target); err != nil {
			return nil, err
		}
	}

	if installers.MacOS {
		if err := p.addInstallers(release.PlatformDarwin, keys.ShapeMacOS, release.DistMacOS); err != nil {
			return nil, err
		}
	}

	if installers.Win {
		if err := p.addInstallers(release.PlatformWin32, keys.ShapeWin32, release.DistWin32); err != nil {
			return nil, err
		}
	}

	if installers.Deb {
		if err := p.addDebian(); err != nil {
			return nil, err
		}
	}

	return &p.plan, nil
}

// addTarget plans the tarballs and the manifest of one target.
func (p *planner) addTarget(target release.Target) error {
	id := p.build.Identity()

	exts := []string{keys.ExtTarGz}
	if p.build.Xz {
		exts = append(exts, keys.ExtTarXz)
	}

	for _, ext := range exts {
		short, err := p.builder.ShortKey(keys.ShapeVersioned, keys.ParamsFor(id, target, ext))
		if err != nil {
			return err
		}

		local := p.build.Dist(path.Base(short))
		if !fileExists(local) {
			return fmt.Errorf(
				"%w: %s for %s; run the pack step for %s before uploading",
				ErrMissingTarball, local, target, target,
			)
		}

		p.add(target.String(), local, p.builder.CloudKey(short), release.TarballCacheControl)
	}

	short, err := p.builder.ShortKey(keys.ShapeManifest, keys.ParamsFor(id, target, ""))
	if err != nil {
		return err
	}

	local := p.build.Dist(path.Base(short))
	if !fileExists(local) {
		p.plan.MissingManifests = append(p.plan.MissingManifests, local)

		return nil
	}

	p.add(target.String(), local, p.builder.CloudKey(short), release.ManifestCacheControl)

	return nil
}

// addInstallers plans one installer per distinct architecture of a platform.
func (p *planner) addInstallers(platform string, shape keys.Shape, distDir string) error {
	id := p.build.Identity()

	for _, arch := range release.UniqueArchs(p.build.Targets, platform) {
		short, err := p.builder.ShortKey(shape, keys.Params{
			Bin:     id.Bin,
			Version: id.Version,
			Sha:     id.Sha,
			Arch:    arch,
		})
		if err != nil {
			return err
		}

		local := p.build.Dist(distDir, path.Base(short))
		if !fileExists(local) {
			return fmt.Errorf("%w: %s", ErrMissingInstaller, local)
		}

		p.add(string(shape), local, p.builder.CloudKey(short), release.ManifestCacheControl)
	}

	return nil
}

// addDebian plans the .deb of every non-x86 linux architecture and the
// repository metadata, all under "<commit>/apt/".
func (p *planner) addDebian() error {
	id := p.build.Identity()

	var files []string

	for _, arch := range release.UniqueArchs(p.build.Targets, release.PlatformLinux) {
		if (release.Target{Platform: release.PlatformLinux, Arch: arch}).IsX86Variant() {
			continue
		}

		params, err := keys.DebParams(id, arch)
		if err != nil {
			return err
		}

		short, err := p.builder.ShortKey(keys.ShapeDeb, params)
		if err != nil {
			return err
		}

		files = append(files, path.Base(short))
	}

	required := slices.Concat(files, release.RequiredAptMetadataFiles)
	for _, name := range required {
		if local := p.build.Dist(release.DistDeb, name); !fileExists(local) {
			return fmt.Errorf("%w: %s", ErrMissingInstaller, local)
		}
	}

	for _, name := range release.AptMetadataFiles {
		if !slices.Contains(required, name) && fileExists(p.build.Dist(release.DistDeb, name)) {
			required = append(required, name)
		}
	}

	for _, name := range required {
		key, err := p.builder.CommitKey(release.AptDir + "/" + name)
		if err != nil {
			return err
		}

		p.add(string(keys.ShapeDeb), p.build.Dist(release.DistDeb, name), key, release.ManifestCacheControl)
	}

	return nil
}

// add appends one upload.
func (p *planner) add(label, local, key, cacheControl string) {
	p.plan.Files = append(p.plan.Files, File{
		Label:     label,
		LocalPath: local,
		Object: storage.Object{
			Key:          key,
			ACL:          p.build.Storage.ACL,
			CacheControl: cacheControl,
			ContentType:  release.ContentType(path.Base(key)),
		},
	})
}

// fileExists reports whether name is an existing regular file.
func fileExists(name string) bool {
	info, err := os.Stat(name)

	return err == nil && !info.IsDir()
}
