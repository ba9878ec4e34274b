package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key derives a deterministic cache key from an endpoint and its query
// parameters. Keys are order-independent: the same logical query always maps
// to the same key, and differently-valued queries never collide because the
// encoding is url-escaped rather than concatenated.
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}

	canonical := make(url.Values, len(params))
	for name, values := range params {
		sorted := make([]string, len(values))
		copy(sorted, values)
		sort.Strings(sorted)
		canonical[name] = sorted
	}

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('?')
	b.WriteString(canonical.Encode())
	return b.String()
}
