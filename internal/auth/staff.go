package auth

import (
	"crypto/subtle"
	"net/http"

	"libraryledger/internal/httpx"

	"go.uber.org/zap"
)

// Staff holds the credentials allowed to call mutating routes.
type Staff struct {
	Enabled      bool
	User         string
	PasswordHash string
}

// RequireStaff rejects requests without valid staff Basic credentials. A disabled guard lets everything through.
func RequireStaff(staff Staff, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	log = log.Named("auth")
	return func(next http.Handler) http.Handler {
		if !staff.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(staff.User)) != 1 {
				unauthorized(w)
				return
			}
			valid, err := VerifyPassword(password, staff.PasswordHash)
			if err != nil {
				log.Errorw("staff password check failed", "error", err)
				unauthorized(w)
				return
			}
			if !valid {
				log.Warnw("rejected staff credentials", "user", user, "path", r.URL.Path)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="library-ledger"`)
	httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorBody{Error: httpx.ErrorDetail{
		Code:    "UNAUTHORIZED",
		Message: "staff credentials required",
	}})
}
