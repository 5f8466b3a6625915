package keys

import (
	"errors"
	"fmt"

	"github.com/fluxcd/pkg/envsubst"
)

// errMissingTemplate is returned when custom templates do not cover a shape.
var errMissingTemplate = errors.New("no custom template for shape")

// Renderer is the hook that replaces the builtin scheme.
type Renderer interface {
	Render(shape Shape, params Params) (string, error)
}

// Templates holds custom key templates, e.g.
//
//	target:
//	  versioned: "builds/${version}/${bin}-${platform}-${arch}${ext}"
//
// The target set is used when a platform is known, the vanilla set otherwise.
type Templates struct {
	// Target templates apply to platform-specific keys.
	Target map[Shape]string `yaml:"target"`
	// Vanilla templates apply to keys without a platform.
	Vanilla map[Shape]string `yaml:"vanilla"`
}

// IsEmpty reports whether no template is configured.
func (t Templates) IsEmpty() bool {
	return len(t.Target) == 0 && len(t.Vanilla) == 0
}

// TemplateRenderer renders ${name} templates with envsubst.
type TemplateRenderer struct {
	// templates is the configured template set.
	templates Templates
}

// NewTemplateRenderer creates a renderer over the given templates.
func NewTemplateRenderer(templates Templates) *TemplateRenderer {
	return &TemplateRenderer{templates: templates}
}

// Render evaluates the template for the shape. Unknown variables are errors.
func (r *TemplateRenderer) Render(shape Shape, params Params) (string, error) {
	set, setName := r.templates.Vanilla, "vanilla"
	if params.Platform != "" {
		set, setName = r.templates.Target, "target"
	}

	tmpl, ok := set[shape]
	if !ok || tmpl == "" {
		return "", fmt.Errorf("%w: %s.%s", errMissingTemplate, setName, shape)
	}

	vars := params.vars()

	key, err := envsubst.Eval(tmpl, func(name string) (string, bool) {
		value, ok := vars[name]

		return value, ok
	})
	if err != nil {
		return "", fmt.Errorf("render %s.%s: %w", setName, shape, err)
	}

	return key, nil
}

// errUnknown wraps errUnknownShape with the shape name.
func errUnknown(shape Shape) error {
	return fmt.Errorf("%w: %s", errUnknownShape, shape)
}

// errMissing wraps errMissingParam with the shape and param name.
func errMissing(shape Shape, name string) error {
	return fmt.Errorf("%s: %s: %w", shape, name, errMissingParam)
}
