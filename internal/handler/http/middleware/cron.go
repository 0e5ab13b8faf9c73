package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
)

const CronSecretHeader = "X-Cron-Secret"

// CronSecret guards endpoints called by an external scheduler.
func CronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(CronSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				response.Unauthorized(w, "Invalid cron secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
