package middleware

import (
	"net/http"

	"github.com/rs/xid"

	"github.com/darmiel/callsign/internal/correlation"
)

// maxCorrelationIDLength bounds client supplied correlation ids.
const maxCorrelationIDLength = 64

// Correlation assigns every request a correlation id, reusing a short client
// supplied one, and echoes it in the response.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlation.Header)
		if id == "" || len(id) > maxCorrelationIDLength {
			id = xid.New().String()
		}
		w.Header().Set(correlation.Header, id)

		next.ServeHTTP(w, r.WithContext(correlation.WithID(r.Context(), id)))
	})
}
