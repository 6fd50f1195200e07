package auth

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecast-server/internal/core"
)

// Authenticator resolves connection credentials to identities.
// Failures degrade to anonymous; viewing never requires a token.
type Authenticator struct {
	cfg *JWTConfig
	log *zerolog.Logger
}

// NewAuthenticator creates an authenticator for the given JWT settings.
func NewAuthenticator(cfg *JWTConfig, logger *zerolog.Logger) *Authenticator {
	return &Authenticator{cfg: cfg, log: logger}
}

// Resolve returns the identity for token, or nil for anonymous.
func (a *Authenticator) Resolve(token string) *core.Identity {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" || a == nil || a.cfg == nil || len(a.cfg.Secret) == 0 {
		return nil
	}

	claims, err := ValidateToken(a.cfg, token)
	if err != nil {
		if a.log != nil {
			a.log.Debug().Err(err).Msg("token rejected, continuing as anonymous")
		}
		return nil
	}

	active := claims.Active == nil || *claims.Active
	if !active {
		return nil
	}

	return &core.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Avatar:   claims.Avatar,
		Active:   active,
	}
}
