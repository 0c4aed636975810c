package component

import (
	"strings"
	"unicode"
)

// Attributes is the state bag of a component instance.
type Attributes map[string]any

// TemplateFunc turns attributes into markup. It receives a copy of the
// instance attributes and must not have side effects.
type TemplateFunc func(Attributes) (string, error)

// Definition is the capability every component type implements.
type Definition interface {
	// Name is the type name; its dash-cased form is the element tag.
	Name() string

	// Template renders the attributes to markup.
	Template(Attributes) (string, error)
}

// Defaulter supplies default attributes merged under the caller's.
type Defaulter interface {
	DefaultAttributes() Attributes
}

// Initer is notified once when an instance first becomes live.
type Initer interface {
	OnInit(*Instance)
}

// Destroyer is notified when an instance is being destroyed, before its
// children are destroyed and its node is detached.
type Destroyer interface {
	OnDestroy(*Instance)
}

// Keyer derives the lookup key used by Type.ByKey.
type Keyer interface {
	Key(Attributes) any
}

// Spec is a Definition assembled from plain functions.
type Spec struct {
	name      string
	template  TemplateFunc
	defaults  Attributes
	onInit    func(*Instance)
	onDestroy func(*Instance)
	key       func(Attributes) any
}

// SpecOption configures a Spec.
type SpecOption func(*Spec)

// WithDefaults sets the default attributes.
func WithDefaults(defaults Attributes) SpecOption {
	return func(s *Spec) {
		s.defaults = defaults
	}
}

// OnInit sets the init hook.
func OnInit(fn func(*Instance)) SpecOption {
	return func(s *Spec) {
		s.onInit = fn
	}
}

// OnDestroy sets the destroy hook.
func OnDestroy(fn func(*Instance)) SpecOption {
	return func(s *Spec) {
		s.onDestroy = fn
	}
}

// WithKey sets the key function used by Type.ByKey.
func WithKey(fn func(Attributes) any) SpecOption {
	return func(s *Spec) {
		s.key = fn
	}
}

// KeyBy uses the value of attribute name as the lookup key.
func KeyBy(name string) SpecOption {
	return WithKey(func(a Attributes) any { return a[name] })
}

// Define builds a Definition from a template function.
func Define(name string, tmpl TemplateFunc, opts ...SpecOption) *Spec {
	s := &Spec{name: name, template: tmpl}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Spec) Name() string { return s.name }

func (s *Spec) Template(a Attributes) (string, error) {
	if s.template == nil {
		return "", nil
	}
	return s.template(a)
}

func (s *Spec) DefaultAttributes() Attributes {
	return copyAttributes(s.defaults)
}

func (s *Spec) OnInit(i *Instance) {
	if s.onInit != nil {
		s.onInit(i)
	}
}

func (s *Spec) OnDestroy(i *Instance) {
	if s.onDestroy != nil {
		s.onDestroy(i)
	}
}

func (s *Spec) Key(a Attributes) any {
	if s.key == nil {
		return nil
	}
	return s.key(a)
}

// TagName returns the element tag for a type name: "ExampleComponent"
// becomes "example-component" and "HTMLViewer" becomes "html-viewer".
func TagName(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			continue
		case unicode.IsUpper(r):
			if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// copyAttributes returns a copy of a. Nested attribute maps are copied too so
// callers cannot reach stored state through the copy.
func copyAttributes(a Attributes) Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case Attributes:
		return copyAttributes(val)
	case map[string]any:
		return map[string]any(copyAttributes(val))
	case []*Instance:
		return append([]*Instance(nil), val...)
	default:
		return v
	}
}
