package response

import (
	"net/http"

	pkgctx "github.com/baechuer/blood-drive-service/internal/pkg/context"
)

// RequestIDFromRequest prefers the id set by the RequestID middleware and
// falls back to the inbound header.
func RequestIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if v := pkgctx.GetRequestID(r.Context()); v != "" {
		return v
	}
	if v := r.Header.Get("X-Request-Id"); v != "" {
		return v
	}
	return r.Header.Get("X-Request-ID")
}
