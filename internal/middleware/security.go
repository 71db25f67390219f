package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/relive/relive/internal/ctxkeys"
)

// SecurityHeaders sets CSP, clickjacking and sniffing protections.
// Media may load from the configured S3 endpoint since uploads redirect there.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaSrc := []string{"'self'", "blob:"}
		if cfg := ctxkeys.Config(r.Context()); cfg != nil {
			if cfg.S3Endpoint != "" {
				mediaSrc = append(mediaSrc, cfg.S3Endpoint)
			} else if cfg.StorageDriver == "s3" {
				mediaSrc = append(mediaSrc, "https://*.amazonaws.com")
			}
		}
		sources := strings.Join(mediaSrc, " ")

		scriptSrc := "'self'"
		styleSrc := "'self'"
		if nonce := ctxkeys.Nonce(r.Context()); nonce != "" {
			scriptSrc = fmt.Sprintf("'self' 'nonce-%s'", nonce)
			styleSrc = fmt.Sprintf("'self' 'nonce-%s'", nonce)
		}

		h := w.Header()
		h.Set("Content-Security-Policy", fmt.Sprintf(
			"default-src 'self'; script-src %s; style-src %s; img-src %s data:; media-src %s; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
			scriptSrc, styleSrc, sources, sources,
		))
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
