package router

import (
	"errors"
	"net/url"
	"strings"
)

// Path errors.
var (
	ErrInvalidPath          = errors.New("router: invalid path")
	ErrBackslashInPath      = errors.New("router: path contains backslash")
	ErrNullByteInPath       = errors.New("router: path contains null byte")
	ErrInvalidPercentEscape = errors.New("router: invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("router: path escapes root via ..")
	ErrEncodedSlash         = errors.New("router: encoded slash in parameter segment")
)

// CanonicalizePath normalizes a navigation path. Absolute URLs are
// rejected so that links cannot leave the application. The query string,
// if any, is kept verbatim.
//
//   - "" becomes "/"
//   - repeated slashes collapse
//   - "." segments are dropped and ".." segments resolved
//   - a trailing slash is removed except on "/"
func CanonicalizePath(input string) (string, error) {
	if strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "//") {
		return "", ErrInvalidPath
	}
	if input == "" {
		return "/", nil
	}

	path, query, hasQuery := strings.Cut(input, "?")
	if strings.Contains(path, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if _, err := url.PathUnescape(path); err != nil {
			return "", ErrInvalidPercentEscape
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	path = "/" + strings.Join(out, "/")
	if hasQuery && query != "" {
		return path + "?" + query, nil
	}
	return path, nil
}

// splitQuery separates the path from its query string.
func splitQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

// splitPath splits a path into segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// decodeSegment unescapes one path segment. Parameter segments may not
// smuggle a slash through %2F.
func decodeSegment(seg string, catchAll bool) (string, error) {
	decoded, err := url.PathUnescape(seg)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !catchAll && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlash
	}
	return decoded, nil
}
