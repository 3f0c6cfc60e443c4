package http

import (
	"net/http"

	applog "financepro/internal/log"
	"financepro/internal/session"
)

type sessionResponse struct {
	session.Session
}

// handleSignIn redirects browsers to the provider. Clients asking for JSON
// receive the URL and state instead.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := s.sessions.SignIn()
	if err != nil {
		writeError(w, r, applog.OpSignIn, err)
		return
	}
	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL, "state": state})
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) handleSignInCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Provider rejected sign-in", "provider_error", e)
		writeError(w, r, applog.OpSignIn, session.ErrNoSession)
		return
	}

	sess, err := s.sessions.CompleteSignIn(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		writeError(w, r, applog.OpSignIn, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User signed in", applog.FieldUserID, sess.User.ID)
	writeJSON(w, http.StatusOK, sessionResponse{sess})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, r, applog.OpSignOut, session.ErrNoSession)
		return
	}
	if err := s.sessions.SignOut(token); err != nil {
		writeError(w, r, applog.OpSignOut, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.CurrentSession(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       sess.User,
		"expires_at": sess.ExpiresAt,
	})
}
