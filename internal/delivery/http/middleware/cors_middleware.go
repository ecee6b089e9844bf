package middleware

import "net/http"

// CORSMiddleware answers browser preflights and echoes allowed origins
type CORSMiddleware struct {
	allowAny bool
	origins  map[string]struct{}
}

// NewCORSMiddleware allows the listed origins. An empty list or "*" allows any origin.
func NewCORSMiddleware(origins ...string) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			m.allowAny = true
		}
		m.origins[origin] = struct{}{}
	}
	if len(origins) == 0 {
		m.allowAny = true
	}
	return m
}

func (m *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		switch {
		case m.allowAny:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			w.Header().Add("Vary", "Origin")
			if _, ok := m.origins[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, req)
	})
}
