package parsers

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// hasDocstring reports whether the first statement of body is a standalone string
// literal whose value is non-empty after trimming. f-strings and bytes literals are
// not docstrings.
func hasDocstring(body *sitter.Node, source []byte) bool {
	stmt := firstStatement(body)
	if stmt == nil || stmt.Kind() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return false
	}

	expr := stmt.NamedChild(0)
	var parts []*sitter.Node
	switch expr.Kind() {
	case "string":
		parts = []*sitter.Node{expr}
	case "concatenated_string":
		parts = findChildrenByType(expr, "string")
	default:
		return false
	}

	var b strings.Builder
	for _, part := range parts {
		value, ok := stringLiteralValue(extractNodeText(part, source))
		if !ok {
			return false
		}
		b.WriteString(value)
	}
	return strings.TrimSpace(b.String()) != ""
}

// stringLiteralValue strips the prefix and quotes from a Python string literal.
// Escapes are decoded so that "\n" or "\x20" alone does not count as content.
// ok is false for f-strings and bytes literals.
func stringLiteralValue(literal string) (value string, ok bool) {
	prefixLen := 0
	for prefixLen < len(literal) && literal[prefixLen] != '"' && literal[prefixLen] != '\'' {
		prefixLen++
	}
	prefix := strings.ToLower(literal[:prefixLen])
	if strings.ContainsAny(prefix, "fb") {
		return "", false
	}

	body := literal[prefixLen:]
	quote := ""
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(body, q) && strings.HasSuffix(body, q) && len(body) >= 2*len(q) {
			quote = q
			break
		}
	}
	if quote == "" {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body), true
}

// unescape decodes Python string escapes. Unknown escapes are kept verbatim,
// as Python does; \N{...} is kept as text.
func unescape(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}

		i++
		switch e := body[i]; e {
		case '\n':
			// line continuation
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if r, ok := parseRune(body, i+1, width, 16); ok {
				b.WriteRune(r)
				i += width
			} else {
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n := 1
			for n < 3 && i+n < len(body) && body[i+n] >= '0' && body[i+n] <= '7' {
				n++
			}
			r, _ := parseRune(body, i, n, 8)
			b.WriteRune(r)
			i += n - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

// parseRune reads width digits of body starting at start in the given base.
func parseRune(body string, start, width, base int) (rune, bool) {
	if start+width > len(body) {
		return 0, false
	}
	v, err := strconv.ParseUint(body[start:start+width], base, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
