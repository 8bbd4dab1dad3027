package daemon

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// authEnvVar holds comma-separated user:password pairs. When empty, every
// routed call bypasses authentication.
const authEnvVar = "API_AUTH"

// LoadCredentials reads the credential set from the environment, loading a
// .env file first when present.
func LoadCredentials() map[string]string {
	_ = godotenv.Load()
	return parseCredentials(os.Getenv(authEnvVar))
}

func parseCredentials(raw string) map[string]string {
	creds := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, password, ok := strings.Cut(pair, ":")
		if !ok || user == "" {
			continue
		}
		creds[user] = password
	}
	return creds
}

// authMiddleware returns a middleware enforcing HTTP Basic authentication
// against the credential set. With no credentials configured all requests
// pass through. Password comparison is constant-time.
func authMiddleware(creds map[string]string, next http.HandlerFunc) http.HandlerFunc {
	if len(creds) == 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if ok {
			if expected, known := creds[user]; known &&
				subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1 {
				next(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="taggerd"`)
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Incorrect username or password",
		})
	}
}
