package extraction

import "strings"

// NormalizeDecorator reduces decorator source text to its trailing identifier
// and, for attribute access, the identifier before it.
//
//	"@property"             -> ("", "property")
//	"@typing.overload"      -> ("typing", "overload")
//	"@prop.setter"          -> ("prop", "setter")
//	"@functools.wraps(fn)"  -> ("functools", "wraps")
func NormalizeDecorator(text string) (qualifier, name string) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "@"))
	if i := strings.IndexByte(text, '('); i >= 0 {
		text = text[:i]
	}
	text = strings.Join(strings.Fields(text), "")

	parts := strings.Split(text, ".")
	name = parts[len(parts)-1]
	if len(parts) > 1 {
		qualifier = parts[len(parts)-2]
	}
	return qualifier, name
}

// ClassifyDecorators builds the Decorators facts from raw decorator texts.
func ClassifyDecorators(texts []string) Decorators {
	var d Decorators
	for _, text := range texts {
		qualifier, name := NormalizeDecorator(text)
		switch name {
		case "property":
			d.Getter = true
		case "setter":
			if qualifier != "" {
				d.Setter = true
			}
		case "deleter":
			if qualifier != "" {
				d.Deleter = true
			}
		case "overload":
			d.Overload = true
		}
	}
	return d
}
