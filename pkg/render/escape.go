package render

import "strings"

// escape escapes s for inclusion in HTML. When attr is set, whitespace
// characters that could break attribute parsing are escaped as well.
func escape(s string, attr bool) string {
	if !strings.ContainsAny(s, "&<>\"'\n\r\t") {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s) + 8)

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n', '\r', '\t':
			if !attr {
				buf.WriteRune(r)
				continue
			}
			switch r {
			case '\n':
				buf.WriteString("&#10;")
			case '\r':
				buf.WriteString("&#13;")
			default:
				buf.WriteString("&#9;")
			}
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

func escapeHTML(s string) string { return escape(s, false) }

func escapeAttr(s string) string { return escape(s, true) }
