package domain

import (
	"net/url"
	"sort"
	"strings"
)

// CacheKey identifies a cached response by request method and normalized URL.
type CacheKey struct {
	Method string
	URL    string
}

// NewCacheKey builds the canonical key for a request.
// Scheme and host are lower-cased, default ports dropped, an empty path
// becomes "/", query parameters are sorted and the fragment is discarded.
func NewCacheKey(method string, u *url.URL) CacheKey {
	return CacheKey{
		Method: strings.ToUpper(method),
		URL:    normalizeURL(u),
	}
}

func (k CacheKey) String() string {
	return k.Method + " " + k.URL
}

func normalizeURL(u *url.URL) string {
	if u == nil {
		return "/"
	}
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	n.Fragment = ""
	n.RawFragment = ""
	n.User = nil

	host, port := n.Hostname(), n.Port()
	if (n.Scheme == "http" && port == "80") || (n.Scheme == "https" && port == "443") {
		n.Host = host
		if strings.Contains(host, ":") {
			n.Host = "[" + host + "]"
		}
	}

	if n.Path == "" {
		n.Path = "/"
		n.RawPath = ""
	}

	if n.RawQuery != "" {
		n.RawQuery = sortedQuery(n.Query())
	}
	n.ForceQuery = false

	return n.String()
}

func sortedQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
