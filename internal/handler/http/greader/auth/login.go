package auth

import (
	"fmt"
	"net/http"
	"time"

	authsvc "feedstream/internal/service/auth"
)

// ClientLogin implements POST /accounts/ClientLogin (spec.md §4.9):
// form fields Email/email and Passwd/passwd (case-insensitive names),
// success issues an AuthToken and responds with the SID=/Auth= body
// GReader clients parse; failure is 403 Error=BadAuthentication;
// non-POST is 405.
func ClientLogin(svc *authsvc.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		start := time.Now()
		defer func() { RecordLoginDuration(time.Since(start).Seconds()) }()

		if err := r.ParseForm(); err != nil {
			writeBadAuth(w)
			return
		}

		creds := authsvc.Credentials{
			Username: firstNonEmpty(r.PostForm.Get("Email"), r.PostForm.Get("email")),
			Password: firstNonEmpty(r.PostForm.Get("Passwd"), r.PostForm.Get("passwd")),
		}

		token, err := svc.Login(r.Context(), creds)
		if err != nil {
			RecordAuthRequest("failure")
			writeBadAuth(w)
			return
		}

		RecordAuthRequest("success")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "SID=%s\nLSID=%s\nAuth=%s\n", token.Token, token.Token, token.Token)
	}
}

func writeBadAuth(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusForbidden)
	fmt.Fprint(w, "Error=BadAuthentication\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
