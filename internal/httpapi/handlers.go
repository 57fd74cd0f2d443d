package httpapi

import (
	"errors"
	"net/http"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/cookie"
	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/logger"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (a *API) setRefreshCookie(w http.ResponseWriter, token string) {
	a.cookies.Set(w, a.gate.RefreshCookieName(), token, cookie.WithMaxAge(int(a.refreshTTL.Seconds())))
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	a.cookies.Delete(w, a.gate.RefreshCookieName())
}

// signedIn sets the refresh cookie and writes the access token.
func (a *API) signedIn(w http.ResponseWriter, status int, res *auth.AuthResult) {
	a.setRefreshCookie(w, res.Tokens.RefreshToken)
	writeJSON(w, status, newAuthView(res))
}

func (a *API) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.SignUp(r.Context(), auth.SignUpInput(req), a.meta(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.signedIn(w, http.StatusCreated, res)
}

func (a *API) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	login := req.Email
	if login == "" {
		login = req.Handle
	}
	res, err := a.svc.SignIn(r.Context(), auth.SignInInput{Login: login, Password: req.Password}, a.meta(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.signedIn(w, http.StatusOK, res)
}

// refresh rotates the refresh session. Any failure other than a storage
// error signs the client out.
func (a *API) refresh(w http.ResponseWriter, r *http.Request, cred auth.RefreshCredential) {
	pair, err := a.svc.Refresh(r.Context(), cred, a.meta(r))
	switch {
	case err == nil:
		a.setRefreshCookie(w, pair.RefreshToken)
		writeJSON(w, http.StatusOK, tokenView{AccessToken: pair.AccessToken, ExpiresAt: pair.AccessExpiresAt})
	case errors.Is(err, auth.ErrDatabase):
		a.fail(w, r, err)
	default:
		a.logger.DebugContext(r.Context(), "refresh rejected", "reason", toHTTPError(err).Key)
		a.clearRefreshCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *API) signOut(w http.ResponseWriter, r *http.Request, cred auth.RefreshCredential) {
	if err := a.svc.SignOut(r.Context(), cred); err != nil && errors.Is(err, auth.ErrDatabase) {
		a.fail(w, r, err)
		return
	}
	a.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) setPassword(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims) {
	var req passwordRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.SetPassword(r.Context(), claims.Subject, req.Password); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) sessions(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims) {
	recs, err := a.svc.ListSessions(r.Context(), claims.Subject)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": newSessionViews(recs)})
}

func (a *API) whoami(w http.ResponseWriter, r *http.Request, claims *jwt.AccessClaims) {
	if claims == nil {
		writeJSON(w, http.StatusOK, whoamiView{})
		return
	}
	user, err := a.svc.UserByID(r.Context(), claims.Subject)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusOK, whoamiView{})
	case err != nil:
		a.fail(w, r, err)
	default:
		view := newUserView(*user)
		writeJSON(w, http.StatusOK, whoamiView{Authenticated: true, User: &view})
	}
}

func (a *API) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := a.svc.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserView(*user)})
}

func (a *API) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.ResendVerification(r.Context(), req.Email); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// forgotPassword answers 200 whatever happens so it cannot be used to probe
// for accounts. Failures are logged.
func (a *API) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := a.bind(r, &req); err == nil {
		if err := a.svc.ForgotPassword(r.Context(), req.Email); err != nil {
			a.logger.ErrorContext(r.Context(), "forgot password", logger.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) cleanupSessions(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims) {
	n, err := a.svc.CleanupExpiredSessions(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			err = auth.ErrForbidden
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
