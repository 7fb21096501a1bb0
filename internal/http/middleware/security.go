// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the hardening layer for the public
// demand API. The surface is a JSON API consumed by scanner apps and the admin
// console, so the posture is API-shaped: no CSP (nothing here serves HTML),
// HSTS only when traffic is HTTPS end to end, and cache suppression for
// responses that embed voter-derived data.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Leave
	// off unless the proxy-to-app hop is also TLS.
	EnableHSTS bool
	// HSTSMaxAge is the HSTS lifetime; <= 0 defaults to 180 days.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store. Demand summaries and the queue
	// are cacheable (the queue is ETagged), so the router leaves this off;
	// it exists for deployments fronting the admin surface directly.
	NoStore bool
	// EnablePolicy includes browser feature policies. Scanner clients ignore
	// them; they only matter when the API is hit from a browser.
	EnablePolicy bool
}

// SecurityHeaders returns a middleware that stamps conservative security
// headers on every response.
//
// Always: X-Content-Type-Options, X-Frame-Options, Referrer-Policy.
// With EnablePolicy: Permissions-Policy and X-Permitted-Cross-Domain-Policies.
// With NoStore: Cache-Control no-store plus the legacy Pragma/Expires pair.
// With EnableHSTS on an HTTPS request: Strict-Transport-Security.
//
// When a request id was assigned upstream it is appended to
// Access-Control-Expose-Headers so browser callers can correlate errors with
// server logs.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hstsValue := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		// Never on plain HTTP; a misapplied HSTS header can lock clients out.
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			exposeHeader(h, "X-Request-ID")
		}

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers without
// clobbering values set by the CORS layer.
func exposeHeader(h http.Header, name string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	switch {
	case cur == "":
		h.Set(hdr, name)
	case !strings.Contains(cur, name):
		h.Set(hdr, cur+", "+name)
	}
}

// isHTTPS reports whether the request arrived over TLS, either directly or
// via a proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
