package guard

import (
	"net/url"
	"strings"
)

// SafeRedirect returns target when it is a local absolute path, and
// fallback otherwise.
func SafeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return fallback
	}

	// Protocol-relative and backslash tricks.
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") || strings.ContainsAny(target, "\r\n") {
		return fallback
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}

	return target
}

// LoginURL returns loginPath with the attempted path preserved in the
// redirect query parameter.
func LoginURL(loginPath, attempted, fallback string) string {
	q := url.Values{}
	q.Set("redirect", SafeRedirect(attempted, fallback))
	return loginPath + "?" + q.Encode()
}
