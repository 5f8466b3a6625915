package keys

import (
	"path"

	"github.com/oshokin/release-publisher/internal/domain/release"
)

// Builder computes every key the orchestrators need.
type Builder interface {
	// ShortKey renders one shape to a filename (or a full key under custom templates).
	ShortKey(shape Shape, params Params) (string, error)
	// CloudKey places a short key in the commit directory.
	CloudKey(localKey string) string
	// CommitKey places a filename, e.g. "apt/Release", in the commit directory.
	CommitKey(filename string) (string, error)
	// ChannelTarball returns the channel key of a target's unversioned tarball.
	ChannelTarball(ext string, target release.Target, channel string) (string, error)
	// ChannelManifest returns the channel key of a target's build manifest.
	ChannelManifest(target release.Target, channel string) (string, error)
	// ChannelKey places a filename in the channel directory.
	ChannelKey(channel, filename string) (string, error)
	// IndexFilename returns the name of the index a channel tarball is listed in.
	// It always equals the base name of ChannelTarball for the same inputs.
	IndexFilename(ext string, target release.Target, channel string) (string, error)
}

// Layout is the part of the storage configuration that affects keys.
type Layout struct {
	// Folder is an optional prefix for every key.
	Folder string
	// Templates replace the builtin scheme entirely when non-empty.
	Templates Templates
}

// New returns the scheme selected by the layout.
//
//nolint:ireturn // The scheme is chosen at runtime.
func New(id release.Identity, layout Layout) Builder {
	if layout.Templates.IsEmpty() {
		return NewBuiltinScheme(id, layout.Folder)
	}

	return NewDelegatingScheme(id, NewTemplateRenderer(layout.Templates))
}

// BuiltinScheme is the default key layout.
type BuiltinScheme struct {
	// id is the release the commit directory belongs to.
	id release.Identity
	// folder is the optional key prefix.
	folder string
}

// NewBuiltinScheme creates the default scheme for a release.
func NewBuiltinScheme(id release.Identity, folder string) *BuiltinScheme {
	return &BuiltinScheme{
		id:     id,
		folder: folder,
	}
}

// ShortKey renders a shape with the builtin templates.
func (s *BuiltinScheme) ShortKey(shape Shape, params Params) (string, error) {
	p := params.withDefaults()

	switch shape {
	case ShapeVersioned:
		if err := p.require(shape, "bin", "version", "sha", "platform", "arch"); err != nil {
			return "", err
		}

		return p.Bin + p.versionSha() + "-" + p.Platform + "-" + p.Arch + p.Ext, nil
	case ShapeUnversioned:
		if err := p.require(shape, "bin", "platform", "arch"); err != nil {
			return "", err
		}

		return p.Bin + "-" + p.Platform + "-" + p.Arch + p.Ext, nil
	case ShapeManifest:
		if err := p.require(shape, "bin", "version", "sha", "platform", "arch"); err != nil {
			return "", err
		}

		return p.Bin + p.versionSha() + "-" + p.Platform + "-" + p.Arch + "-buildmanifest", nil
	case ShapeMacOS:
		if err := p.require(shape, "bin", "version", "sha", "arch"); err != nil {
			return "", err
		}

		return p.Bin + p.versionSha() + "-" + p.Arch + ".pkg", nil
	case ShapeWin32:
		if err := p.require(shape, "bin", "version", "sha", "arch"); err != nil {
			return "", err
		}

		return p.Bin + p.versionSha() + "-" + p.Arch + ".exe", nil
	case ShapeDeb:
		if err := p.require(shape, "bin", "versionShaRevision", "arch"); err != nil {
			return "", err
		}

		return p.Bin + "_" + p.VersionShaRevision + "_" + p.Arch + ".deb", nil
	case ShapeBaseDir:
		if err := p.require(shape, "bin"); err != nil {
			return "", err
		}

		return p.Bin, nil
	case ShapeChannelManifest:
		manifest, err := s.ShortKey(ShapeManifest, p)
		if err != nil {
			return "", err
		}

		return s.ChannelKey(p.Channel, Strip(manifest, p.Version, p.Sha))
	case ShapeChannelFile:
		return s.ChannelKey(p.Channel, p.Filename)
	case ShapeCommitFile:
		return s.CommitKey(p.Filename)
	default:
		return "", errUnknown(shape)
	}
}

// CloudKey prefixes the short key with the commit directory.
func (s *BuiltinScheme) CloudKey(localKey string) string {
	return CommitDir(s.id.Version, s.id.Sha, s.folder) + "/" + localKey
}

// CommitKey joins the commit directory and a filename.
func (s *BuiltinScheme) CommitKey(filename string) (string, error) {
	if filename == "" {
		return "", errMissing(ShapeCommitFile, "filename")
	}

	return s.CloudKey(filename), nil
}

// ChannelTarball returns "<channel dir>/<bin>-<platform>-<arch><ext>".
func (s *BuiltinScheme) ChannelTarball(ext string, target release.Target, channel string) (string, error) {
	name, err := s.IndexFilename(ext, target, channel)
	if err != nil {
		return "", err
	}

	return s.ChannelKey(channel, name)
}

// ChannelManifest returns the manifest key with the version and sha stripped.
func (s *BuiltinScheme) ChannelManifest(target release.Target, channel string) (string, error) {
	params := ParamsFor(s.id, target, "")
	params.Channel = channel

	return s.ShortKey(ShapeChannelManifest, params)
}

// ChannelKey joins the channel directory and a filename. The filename is not
// cleaned, so "apt/./x" stays as given.
func (s *BuiltinScheme) ChannelKey(channel, filename string) (string, error) {
	if channel == "" {
		return "", errMissing(ShapeChannelFile, "channel")
	}

	if filename == "" {
		return "", errMissing(ShapeChannelFile, "filename")
	}

	return ChannelDir(channel, s.folder) + "/" + filename, nil
}

// IndexFilename returns the unversioned tarball name.
func (s *BuiltinScheme) IndexFilename(ext string, target release.Target, _ string) (string, error) {
	return s.ShortKey(ShapeUnversioned, ParamsFor(s.id, target, ext))
}

// DelegatingScheme hands every key computation to a Renderer.
type DelegatingScheme struct {
	// id is the release whose values are passed to the renderer.
	id release.Identity
	// renderer produces keys from shapes and params.
	renderer Renderer
}

// NewDelegatingScheme creates a scheme that always calls the renderer.
func NewDelegatingScheme(id release.Identity, renderer Renderer) *DelegatingScheme {
	return &DelegatingScheme{
		id:       id,
		renderer: renderer,
	}
}

// ShortKey returns the renderer's output unchanged.
func (s *DelegatingScheme) ShortKey(shape Shape, params Params) (string, error) {
	return s.renderer.Render(shape, params.withDefaults())
}

// CloudKey returns the key unchanged; templates carry their own directories.
func (s *DelegatingScheme) CloudKey(localKey string) string {
	return localKey
}

// CommitKey renders the commit file shape.
func (s *DelegatingScheme) CommitKey(filename string) (string, error) {
	return s.ShortKey(ShapeCommitFile, Params{
		Bin:      s.id.Bin,
		Version:  s.id.Version,
		Sha:      s.id.Sha,
		Filename: filename,
	})
}

// ChannelTarball renders the unversioned shape with the channel set.
func (s *DelegatingScheme) ChannelTarball(ext string, target release.Target, channel string) (string, error) {
	params := ParamsFor(s.id, target, ext)
	params.Channel = channel

	return s.ShortKey(ShapeUnversioned, params)
}

// ChannelManifest renders the channel manifest shape.
func (s *DelegatingScheme) ChannelManifest(target release.Target, channel string) (string, error) {
	params := ParamsFor(s.id, target, "")
	params.Channel = channel

	return s.ShortKey(ShapeChannelManifest, params)
}

// ChannelKey renders the channel file shape.
func (s *DelegatingScheme) ChannelKey(channel, filename string) (string, error) {
	return s.ShortKey(ShapeChannelFile, Params{
		Bin:      s.id.Bin,
		Version:  s.id.Version,
		Sha:      s.id.Sha,
		Channel:  channel,
		Filename: filename,
	})
}

// IndexFilename is the base name of the rendered channel tarball.
func (s *DelegatingScheme) IndexFilename(ext string, target release.Target, channel string) (string, error) {
	key, err := s.ChannelTarball(ext, target, channel)
	if err != nil {
		return "", err
	}

	return path.Base(key), nil
}

var (
	_ Builder = (*BuiltinScheme)(nil)
	_ Builder = (*DelegatingScheme)(nil)
)
