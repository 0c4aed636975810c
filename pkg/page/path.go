package page

import (
	stderrors "errors"
	"strings"
)

// IndexPage is the page name for the root path.
const IndexPage = "index"

// Path errors.
var (
	ErrInvalidPath          = stderrors.New("invalid path")
	ErrInvalidPercentEscape = stderrors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = stderrors.New("path escapes root via ..")
)

// PageName maps a path to a page name: "/" is IndexPage, "/todos/" is
// "todos", "/a//b/./c" is "a/b/c". The query string, if any, is returned
// without the leading "?". Backslashes, NUL bytes, malformed escapes and ".."
// segments that climb above the root are rejected.
func PageName(input string) (name, query string, err error) {
	path, query, _ := strings.Cut(input, "?")
	path, _, _ = strings.Cut(path, "#")

	if strings.Contains(path, "\\") ||
		strings.Contains(path, "\x00") ||
		strings.Contains(strings.ToUpper(path), "%00") {
		return "", "", ErrInvalidPath
	}
	if err := validatePercentEscapes(path); err != nil {
		return "", "", err
	}

	var segments []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return "", "", ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return IndexPage, query, nil
	}
	return strings.Join(segments, "/"), query, nil
}

func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
