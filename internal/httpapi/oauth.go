package httpapi

import (
	"net/http"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/jwt"
)

type oauthSignInRequest struct {
	Code   string  `json:"code"`
	Handle *string `json:"handle,omitempty"`
}

type linkRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type unlinkRequest struct {
	Provider string `json:"provider"`
}

func (a *API) oauthSignIn(provider auth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthSignInRequest
		if err := a.bind(r, &req); err != nil {
			a.fail(w, r, err)
			return
		}
		if req.Code == "" {
			a.fail(w, r, ErrBadRequest)
			return
		}
		res, err := a.svc.OAuthSignIn(r.Context(), provider, req.Code, req.Handle, a.meta(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		status := http.StatusOK
		if res.IsNewUser {
			status = http.StatusCreated
		}
		a.signedIn(w, status, res)
	}
}

func (a *API) linkOAuth(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims) {
	var req linkRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	provider, err := auth.ParseProvider(req.Provider)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Code == "" {
		a.fail(w, r, ErrBadRequest)
		return
	}
	if err := a.svc.LinkProvider(r.Context(), claims.Subject, provider, req.Code); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeConnections(w, r, claims)
}

func (a *API) unlinkOAuth(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims) {
	var req unlinkRequest
	if err := a.bind(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	provider, err := auth.ParseProvider(req.Provider)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Unlink(r.Context(), claims.Subject, provider); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) oauthConnections(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims) {
	a.writeConnections(w, r, claims)
}

func (a *API) writeConnections(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims) {
	conns, err := a.svc.Connections(r.Context(), claims.Subject)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	providers := make([]auth.Provider, 0, len(conns))
	for _, c := range conns {
		providers = append(providers, c.Provider)
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}
