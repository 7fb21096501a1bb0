// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the anonymized voter identity for a request. Demand
// signals are keyed by an opaque, client-supplied voter key (a salted device
// or account hash) rather than any authenticated user identity; the
// middleware normalizes that header once so rate limiting, idempotency, and
// handlers all agree on the same key.
package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderVoterKey is the request header carrying the anonymized voter key.
const HeaderVoterKey = "X-Voter-Key"

// ctxKeyVoter is the Gin context key the resolved voter key is stored under.
const ctxKeyVoter = "voterKey"

// voterKeyPattern bounds the accepted key alphabet. Keys are opaque hashes,
// so the conservative token charset is enough.
var voterKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]{1,128}$`)

// VoterIdentity validates the X-Voter-Key header (when present) and stashes
// the normalized value in the request context. Requests without the header
// proceed without an identity; endpoints that require one reject the request
// themselves.
func VoterIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderVoterKey))
		if key == "" {
			c.Next()
			return
		}
		if !voterKeyPattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_voter_key",
				"message": "invalid " + HeaderVoterKey,
			})
			return
		}
		c.Set(ctxKeyVoter, key)
		c.Next()
	}
}

// VoterKey returns the voter key resolved by VoterIdentity. The second return
// value indicates presence.
func VoterKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyVoter)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
