package extraction

import "strings"

// Kind is the closed set of documentable constructs.
type Kind string

const (
	KindModule   Kind = "module"
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
)

// IsCallable reports whether the kind is a function or a method.
func (k Kind) IsCallable() bool {
	return k == KindFunction || k == KindMethod
}

// Decorators records the decorator facts the inclusion policy cares about.
type Decorators struct {
	Getter   bool `json:"getter,omitempty"`   // @property
	Setter   bool `json:"setter,omitempty"`   // @<name>.setter
	Deleter  bool `json:"deleter,omitempty"`  // @<name>.deleter
	Overload bool `json:"overload,omitempty"` // @overload / @typing.overload
}

// IsPropertyAccessor reports whether any of the property decorators are present.
func (d Decorators) IsPropertyAccessor() bool {
	return d.Getter || d.Setter || d.Deleter
}

// Unit is one documentable construct found in a source file.
type Unit struct {
	Name     string     `json:"name"`
	QualName string     `json:"qualname"` // e.g. "Foo.method" (module units use the file base name)
	Kind     Kind       `json:"kind"`
	Line     int        `json:"line"`
	Path     string     `json:"path"` // owning file
	Level    int        `json:"level"`
	IsNested bool       `json:"is_nested"`
	Parent   int        `json:"-"` // index of the enclosing unit in the walk output, -1 for the module
	HasDoc   bool       `json:"has_doc"`
	Covered  bool       `json:"covered"`
	Skipped  bool       `json:"skipped,omitempty"`
	Decor    Decorators `json:"decorators"`
}

// IsInit reports whether the unit is an initializer method.
func (u Unit) IsInit() bool {
	return u.Kind.IsCallable() && u.Name == InitName
}

// InitName is the name of the class initializer.
const InitName = "__init__"

// InitModuleName is the base name of a package initializer module.
const InitModuleName = "__init__.py"

// IsMagic reports whether name is bracketed by double underscores.
// The initializer is classified separately and is never magic.
func IsMagic(name string) bool {
	if name == InitName {
		return false
	}
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// IsPrivate reports whether name starts with two underscores and is not magic.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__")
}

// IsSemiprivate reports whether name starts with exactly one underscore and is not magic.
func IsSemiprivate(name string) bool {
	if strings.HasSuffix(name, "__") {
		return false
	}
	return strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__")
}
