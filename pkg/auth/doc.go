// Package auth is the identity and session core.
//
// Service implements local sign-up and sign-in, refresh token rotation with
// reuse detection, sign-out, email verification, password reset and the
// reconciliation of OAuth identities with local accounts. Persistence goes
// through the Storage port; every multi-step flow runs inside Storage.InTx.
//
// Gate adapts token checks to HTTP: handlers receive decoded claims as
// parameters instead of reading them from the request context.
//
//	svc := auth.NewService(store, codec, hasher,
//		auth.WithLogger(log),
//		auth.WithNotifier(mailer),
//		auth.WithOAuthClient(oauthClient),
//	)
//	gate := auth.NewGate(codec)
//	mux.Handle("GET /me", gate.Access(func(w http.ResponseWriter, r *http.Request, c jwt.AccessClaims) {
//		user, err := svc.UserByID(r.Context(), c.Subject)
//		// ...
//	}))
//
// Errors returned by Service belong to the sentinel set in errors.go.
// Storage failures are joined with ErrDatabase.
package auth
