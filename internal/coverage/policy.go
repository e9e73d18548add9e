package coverage

import (
	"path/filepath"
	"regexp"

	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
)

// Reason names the rule that decided a unit's fate. The empty reason means the
// unit was included by default.
type Reason string

const (
	ReasonDefault        Reason = ""
	ReasonWhitelist      Reason = "whitelist_regex"
	ReasonModule         Reason = "ignore_module"
	ReasonInitModule     Reason = "ignore_init_module"
	ReasonInitMethod     Reason = "ignore_init_method"
	ReasonMagic          Reason = "ignore_magic"
	ReasonPrivate        Reason = "ignore_private"
	ReasonSemiprivate    Reason = "ignore_semiprivate"
	ReasonPropertyDecor  Reason = "ignore_property_decorators"
	ReasonSetter         Reason = "ignore_setters"
	ReasonNestedFunction Reason = "ignore_nested_functions"
	ReasonNestedClass    Reason = "ignore_nested_classes"
	ReasonOverload       Reason = "ignore_overloaded_functions"
	ReasonRegex          Reason = "ignore_regex"
)

// ignoreRule reports whether a unit is excluded under opts.
type ignoreRule struct {
	reason  Reason
	matches func(u *extraction.Unit, opts *Options) bool
}

// ignoreRules are commutative: any match excludes, and their order only affects which
// reason is reported.
var ignoreRules = []ignoreRule{
	{ReasonModule, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreModule && u.Kind == extraction.KindModule
	}},
	{ReasonInitModule, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreInitModule && filepath.Base(u.Path) == extraction.InitModuleName
	}},
	{ReasonInitMethod, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreInitMethod && u.IsInit()
	}},
	{ReasonMagic, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreMagic && u.Kind.IsCallable() && extraction.IsMagic(u.Name)
	}},
	{ReasonPrivate, func(u *extraction.Unit, o *Options) bool {
		return o.IgnorePrivate && u.Kind != extraction.KindModule && extraction.IsPrivate(u.Name)
	}},
	{ReasonSemiprivate, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreSemiprivate && u.Kind != extraction.KindModule && extraction.IsSemiprivate(u.Name)
	}},
	{ReasonPropertyDecor, func(u *extraction.Unit, o *Options) bool {
		return o.IgnorePropertyDecorators && u.Decor.IsPropertyAccessor()
	}},
	{ReasonSetter, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreSetters && u.Decor.Setter
	}},
	{ReasonNestedFunction, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreNestedFunctions && u.Kind.IsCallable() && u.IsNested
	}},
	{ReasonNestedClass, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreNestedClasses && u.Kind == extraction.KindClass && u.IsNested
	}},
	{ReasonOverload, func(u *extraction.Unit, o *Options) bool {
		return o.IgnoreOverloadedFunctions && u.Decor.Overload
	}},
	{ReasonRegex, func(u *extraction.Unit, o *Options) bool {
		return u.Kind != extraction.KindModule && matchesAny(o.IgnoreRegex, u.Name)
	}},
}

// Include decides whether a unit counts toward coverage.
//
// A whitelist match includes the unit regardless of every ignore rule. Otherwise the
// unit is excluded if any ignore rule matches, and included if none does.
func Include(u extraction.Unit, opts *Options) (bool, Reason) {
	if len(opts.WhitelistRegex) > 0 && matchesAny(opts.WhitelistRegex, u.Name) {
		return true, ReasonWhitelist
	}

	for _, rule := range ignoreRules {
		if rule.matches(&u, opts) {
			return false, rule.reason
		}
	}
	return true, ReasonDefault
}

// matchesAny reports whether any pattern matches at the start of name.
func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if loc := re.FindStringIndex(name); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}
