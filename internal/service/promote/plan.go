package promote

import (
	"path"
	"strconv"

	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/keys"
	"github.com/oshokin/release-publisher/internal/storage"
)

// Copy is one planned promotion copy.
type Copy struct {
	// Label names the target or installer kind in logs.
	Label string
	// Request is the storage copy.
	Request storage.CopyRequest
	// IndexFilename names the index appended after the copy; empty means none.
	IndexFilename string
}

// PlanOptions select what a promotion copies.
type PlanOptions struct {
	// Channel is the destination channel.
	Channel string
	// Targets are the promoted build targets.
	Targets []release.Target
	// Xz promotes .tar.xz tarballs too.
	Xz bool
	// MacOS promotes darwin .pkg installers.
	MacOS bool
	// Win promotes win32 .exe installers.
	Win bool
	// Deb promotes Debian packages and repository metadata.
	Deb bool
	// Indexes appends tarballs and installers to the channel indexes.
	Indexes bool
	// MaxAge is the channel Cache-Control max-age in seconds.
	MaxAge int
	// ACL is applied to every promoted object.
	ACL string
}

// planner computes the copies of one promotion.
type planner struct {
	// id is the promoted release.
	id release.Identity
	// builder computes keys.
	builder keys.Builder
	// opts select the artifacts.
	opts PlanOptions
	// copies accumulates the plan.
	copies []Copy
}

// BuildPlan computes every copy of a promotion. It performs no I/O.
func BuildPlan(id release.Identity, builder keys.Builder, opts PlanOptions) ([]Copy, error) {
	p := &planner{
		id:      id,
		builder: builder,
		opts:    opts,
	}

	for _, target := range opts.Targets {
		if err := p.addTarget(target); err != nil {
			return nil, err
		}
	}

	if opts.MacOS {
		if err := p.addInstallers(release.PlatformDarwin, keys.ShapeMacOS); err != nil {
			return nil, err
		}
	}

	if opts.Win {
		if err := p.addInstallers(release.PlatformWin32, keys.ShapeWin32); err != nil {
			return nil, err
		}
	}

	if opts.Deb {
		if err := p.addDebian(); err != nil {
			return nil, err
		}
	}

	return p.copies, nil
}

// addTarget plans the manifest and tarballs of one target.
func (p *planner) addTarget(target release.Target) error {
	manifest, err := p.builder.ShortKey(keys.ShapeManifest, keys.ParamsFor(p.id, target, ""))
	if err != nil {
		return err
	}

	channelManifest, err := p.builder.ChannelManifest(target, p.opts.Channel)
	if err != nil {
		return err
	}

	p.add(target.String(), p.builder.CloudKey(manifest), channelManifest, "")

	exts := []string{keys.ExtTarGz}
	if p.opts.Xz {
		exts = append(exts, keys.ExtTarXz)
	}

	for _, ext := range exts {
		versioned, err := p.builder.ShortKey(keys.ShapeVersioned, keys.ParamsFor(p.id, target, ext))
		if err != nil {
			return err
		}

		channelTarball, err := p.builder.ChannelTarball(ext, target, p.opts.Channel)
		if err != nil {
			return err
		}

		var indexFilename string
		if p.opts.Indexes {
			indexFilename, err = p.builder.IndexFilename(ext, target, p.opts.Channel)
			if err != nil {
				return err
			}
		}

		p.add(target.String(), p.builder.CloudKey(versioned), channelTarball, indexFilename)
	}

	return nil
}

// addInstallers plans one installer per distinct architecture of a platform,
// copied to its version-stripped name in the channel.
func (p *planner) addInstallers(platform string, shape keys.Shape) error {
	for _, arch := range release.UniqueArchs(p.opts.Targets, platform) {
		short, err := p.builder.ShortKey(shape, keys.Params{
			Bin:     p.id.Bin,
			Version: p.id.Version,
			Sha:     p.id.Sha,
			Arch:    arch,
		})
		if err != nil {
			return err
		}

		stripped := keys.Strip(path.Base(short), p.id.Version, p.id.Sha)

		dst, err := p.builder.ChannelKey(p.opts.Channel, stripped)
		if err != nil {
			return err
		}

		var indexFilename string
		if p.opts.Indexes {
			indexFilename = stripped
		}

		p.add(string(shape), p.builder.CloudKey(short), dst, indexFilename)
	}

	return nil
}

// addDebian plans the .deb of every non-x86 linux architecture and the
// repository metadata. Each file is copied twice, to "apt/<file>" and to
// "apt/./<file>", as independent copies.
func (p *planner) addDebian() error {
	var files []string

	for _, target := range p.opts.Targets {
		if target.Platform != release.PlatformLinux || target.IsX86Variant() {
			continue
		}

		params, err := keys.DebParams(p.id, target.Arch)
		if err != nil {
			return err
		}

		short, err := p.builder.ShortKey(keys.ShapeDeb, params)
		if err != nil {
			return err
		}

		files = append(files, path.Base(short))
	}

	files = append(files, release.AptMetadataFiles...)

	for _, name := range files {
		src, err := p.builder.CommitKey(release.AptDir + "/" + name)
		if err != nil {
			return err
		}

		for _, dir := range []string{release.AptDir + "/", release.AptDir + "/./"} {
			dst, err := p.builder.ChannelKey(p.opts.Channel, dir+name)
			if err != nil {
				return err
			}

			p.add(string(keys.ShapeDeb), src, dst, "")
		}
	}

	return nil
}

// add appends one copy with the channel cache policy.
func (p *planner) add(label, src, dst, indexFilename string) {
	p.copies = append(p.copies, Copy{
		Label: label,
		Request: storage.CopyRequest{
			Object: storage.Object{
				Key:          dst,
				ACL:          p.opts.ACL,
				CacheControl: CacheControl(p.opts.MaxAge),
				ContentType:  release.ContentType(path.Base(src)),
			},
			SourceKey:         src,
			MetadataDirective: storage.MetadataReplace,
		},
		IndexFilename: indexFilename,
	})
}

// CacheControl returns "max-age=<maxAge>".
func CacheControl(maxAge int) string {
	return "max-age=" + strconv.Itoa(maxAge)
}
