// util/paths.go

package util

import (
	"net/url"
	"regexp"
	"strings"
)

var slashRuns = regexp.MustCompile(`/+`)

// NormalizePath canonicalizes a catalog path for comparison: URL-decode when
// possible, backslashes to slashes, repeated slashes collapsed, surrounding
// whitespace trimmed. Undecodable input keeps its raw form.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}

	s := path
	if decoded, err := url.PathUnescape(path); err == nil {
		s = decoded
	}

	s = strings.ReplaceAll(s, `\`, "/")
	s = slashRuns.ReplaceAllString(s, "/")
	return strings.TrimSpace(s)
}
