package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/session"
)

type userView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Handle      string    `json:"handle"`
	Email       string    `json:"email,omitempty"`
	IsVerified  bool      `json:"is_verified"`
	Role        auth.Role `json:"role"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserView(u auth.User) userView {
	return userView{
		ID:          u.ID,
		Name:        u.Name,
		Handle:      u.Handle,
		Email:       u.Email,
		IsVerified:  u.IsVerified,
		Role:        u.Role,
		AvatarURL:   u.AvatarURL,
		HasPassword: u.HasPassword(),
		CreatedAt:   u.CreatedAt,
	}
}

type tokenView struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type authView struct {
	tokenView
	User      userView `json:"user"`
	IsNewUser bool     `json:"is_new_user,omitempty"`
}

func newAuthView(res *auth.AuthResult) authView {
	return authView{
		tokenView: tokenView{AccessToken: res.Tokens.AccessToken, ExpiresAt: res.Tokens.AccessExpiresAt},
		User:      newUserView(res.User),
		IsNewUser: res.IsNewUser,
	}
}

type sessionView struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newSessionViews(recs []session.Record) []sessionView {
	out := make([]sessionView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sessionView{
			ID:        rec.ID,
			IPAddress: rec.IPAddress,
			UserAgent: rec.UserAgent,
			IssuedAt:  rec.IssuedAt,
			ExpiresAt: rec.ExpiresAt,
		})
	}
	return out
}

type whoamiView struct {
	Authenticated bool      `json:"authenticated"`
	User          *userView `json:"user,omitempty"`
}
