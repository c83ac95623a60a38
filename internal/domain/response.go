package domain

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CachedResponse is a fully assembled HTTP response as stored in the edge cache.
type CachedResponse struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// Clone returns a deep copy that shares no memory with r.
func (r *CachedResponse) Clone() *CachedResponse {
	if r == nil {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &CachedResponse{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       body,
	}
}

// MaxAge reports the max-age directive of the stored Cache-Control header.
// The second value is false when the response carries no usable directive.
func (r *CachedResponse) MaxAge() (time.Duration, bool) {
	if r == nil || r.Header == nil {
		return 0, false
	}
	for _, directive := range strings.Split(r.Header.Get("Cache-Control"), ",") {
		name, value, found := strings.Cut(strings.TrimSpace(directive), "=")
		if !found || !strings.EqualFold(name, "max-age") {
			continue
		}
		secs, err := strconv.Atoi(strings.Trim(value, `"`))
		if err != nil || secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
