// util/username.go

package util

import "strings"

// ExtractBareName strips the naming convention from a directory account:
// "DOMAIN\user" yields "user", "user@domain" yields "user", anything else is
// returned unchanged. Case is preserved.
func ExtractBareName(s string) string {
	if i := strings.LastIndex(s, `\`); i >= 0 {
		return s[i+1:]
	}
	if i := strings.Index(s, "@"); i >= 0 {
		return s[:i]
	}
	return s
}

// FormatUserName formats a brand-new principal for writing into a policy
// list. Existing principals are never reformatted, only matched.
func FormatUserName(userName, domain string) string {
	trimmed := strings.TrimSpace(userName)
	if trimmed == "" {
		return ""
	}

	if strings.Contains(trimmed, `\`) {
		return trimmed
	}

	if i := strings.Index(trimmed, "@"); i >= 0 {
		userPart := trimmed[:i]
		if domain != "" {
			return domain + `\` + userPart
		}
		return userPart
	}

	if domain != "" {
		return domain + `\` + trimmed
	}

	return trimmed
}

// MatchUserPolicy reports whether a policy principal denotes the same identity
// as the requested user name. Equality is tested case-insensitively across the
// raw and bare forms of both sides. Substring containment is deliberately not
// a match criterion: "user1" must never match a policy for "user12".
func MatchUserPolicy(principal, target string) bool {
	if principal == "" || target == "" {
		return false
	}

	barePrincipal := ExtractBareName(principal)
	bareTarget := ExtractBareName(target)

	return strings.EqualFold(principal, target) ||
		strings.EqualFold(barePrincipal, target) ||
		strings.EqualFold(principal, bareTarget) ||
		strings.EqualFold(barePrincipal, bareTarget)
}
