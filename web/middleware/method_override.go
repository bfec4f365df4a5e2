package middleware

import (
	"net/http"
	"strings"
)

const methodOverrideField = "_method"

var overridableMethods = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride lets HTML forms issue PUT, PATCH and DELETE by posting a
// "_method" form field or query parameter. It wraps the router because gin
// matches routes before any gin middleware runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.URL.Query().Get(methodOverrideField)
			if method == "" {
				// ParseForm keeps the parsed body in r.PostForm for later binding
				if err := r.ParseForm(); err == nil {
					method = r.PostForm.Get(methodOverrideField)
				}
			}
			method = strings.ToUpper(method)
			if overridableMethods[method] {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}
