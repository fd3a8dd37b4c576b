package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
)

var allowedOrigins = map[string]bool{
	"http://localhost:3000":      true,
	"https://kopesha.vercel.app": true,
}

// RequestLogger tags every request with an ID and logs method, path and
// the assigned ID.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		log.Printf("request_id=%s %s %s", requestID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// CORS allows the browser frontend origins and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "*")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
