// Package render compiles the user's main template together with its partials and executes it
// against a normalized contract context.
package render

import (
	"bytes"
	"sort"
	"text/template"

	"github.com/cockroachdb/errors"
	"github.com/jshufro/abi-gen/internal/descriptor"
	"github.com/jshufro/abi-gen/internal/files"
	"github.com/jshufro/abi-gen/internal/typemap"
	"go.uber.org/zap"
)

var ErrRender = errors.New("template error")

// Registry holds named partial templates. It is filled once, then only read by Compile.
type Registry struct {
	fragments map[string]string
	logger    *zap.SugaredLogger
}

func NewRegistry(logger *zap.SugaredLogger) *Registry {
	return &Registry{
		fragments: make(map[string]string),
		logger:    logger,
	}
}

// RegisterFragment stores body under name. A later registration under the same name replaces
// the earlier one.
func (r *Registry) RegisterFragment(name, body string) {
	if _, ok := r.fragments[name]; ok {
		r.logger.Warnw("Partial template shadows an earlier one with the same name", "name", name)
	}
	r.fragments[name] = body
}

// LoadFragments reads each path and registers it under its base name
func (r *Registry) LoadFragments(paths []string) error {
	for _, path := range paths {
		named, err := files.ReadNamed(path)
		if err != nil {
			return err
		}
		r.RegisterFragment(named.Name, string(named.Content))
		r.logger.Debugw("Registered partial", "name", named.Name, "file", path)
	}
	return nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.fragments))
	for name := range r.fragments {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Compile parses the main template with every registered partial available to it.
func (r *Registry) Compile(name, body string, helpers template.FuncMap) (*Template, error) {
	root := template.New(name).Funcs(helpers).Option("missingkey=error")

	for _, fragment := range r.Names() {
		if _, err := root.New(fragment).Parse(r.fragments[fragment]); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "failed to parse partial '%s'", fragment), ErrRender)
		}
	}

	if _, err := root.Parse(body); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to parse template '%s'", name), ErrRender)
	}

	return &Template{tpl: root}, nil
}

// Helpers returns the functions every template can call
func Helpers(m *typemap.Mapper) template.FuncMap {
	return template.FuncMap{
		"parameterType": func(solType string, components ...[]descriptor.Parameter) (string, error) {
			return m.Map(typemap.Input, solType, flatten(components))
		},
		"returnType": func(solType string, components ...[]descriptor.Parameter) (string, error) {
			return m.Map(typemap.Output, solType, flatten(components))
		},
		"isPure": func(stateMutability string) bool {
			return stateMutability == descriptor.MutabilityPure
		},
	}
}

func flatten(components [][]descriptor.Parameter) []descriptor.Parameter {
	var out []descriptor.Parameter
	for _, c := range components {
		out = append(out, c...)
	}
	return out
}

// A compiled main template
type Template struct {
	tpl *template.Template
}

func (t *Template) Render(ctx *descriptor.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, ctx); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to render %s", ctx.ContractName), ErrRender)
	}
	return buf.Bytes(), nil
}
