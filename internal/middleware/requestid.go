// AngelaMos | 2026
// requestid.go

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID honours an inbound X-Request-ID of sane length and otherwise
// mints one. It also records the client origin used by audit entries.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = core.WithClientInfo(ctx, core.ClientInfo{
			RequestID: id,
			IPAddress: core.ClientIP(r),
			UserAgent: r.UserAgent(),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
