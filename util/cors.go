package util

import "strings"

// MakeAllowedOriginValidator builds an origin check for CORS.
// "*" allows everything, entries match exactly or by host without scheme,
// and "https://*.example.com" matches any subdomain.
func MakeAllowedOriginValidator(allowedOrigins []string) func(origin string) bool {
	for _, o := range allowedOrigins {
		if strings.TrimSpace(o) == "*" {
			return func(string) bool { return true }
		}
	}

	return func(origin string) bool {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return false
		}
		originHost := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")

		for _, allowed := range allowedOrigins {
			allowed = strings.TrimSpace(allowed)
			if allowed == "" {
				continue
			}
			if allowed == origin || allowed == originHost {
				return true
			}
			if prefix, suffix, ok := strings.Cut(allowed, "*"); ok {
				if strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
					return true
				}
			}
		}
		return false
	}
}
