package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DocRef identifies one remote document.
type DocRef struct {
	URL   string // normalized document URL
	Kind  string // path segment before the token, e.g. "docx" or "wiki"
	Token string // document token, the id of the page block
}

var docURLPattern = regexp.MustCompile(`^(https?://[^/]+)/([^/]+)/([a-zA-Z0-9_-]+)`)

// ParseDocURL extracts the document kind and token from a share URL.
// A bare host/path without a scheme is accepted and treated as https.
func ParseDocURL(raw string) (DocRef, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return DocRef{}, fmt.Errorf("document url is empty")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	m := docURLPattern.FindStringSubmatch(u)
	if m == nil {
		return DocRef{}, fmt.Errorf("unrecognized document url: %s", raw)
	}
	return DocRef{
		URL:   m[1] + "/" + m[2] + "/" + m[3],
		Kind:  m[2],
		Token: m[3],
	}, nil
}
