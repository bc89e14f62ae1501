package httpapi

import (
	"net/http"

	"iheartcare/internal/domain"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

// Guard resolves the bearer token into a session and checks its role.
type Guard struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewGuard(auth service.AuthService, logger *zap.Logger) *Guard {
	return &Guard{auth: auth, logger: logger}
}

// Session writes the error response and returns ok=false when the request
// has no valid session or the role is not in allowed (empty allowed = any role).
func (g *Guard) Session(w http.ResponseWriter, r *http.Request, allowed ...domain.Role) (*domain.Session, bool) {
	session, err := g.auth.Resolve(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, g.logger, err)
		return nil, false
	}
	if len(allowed) == 0 {
		return session, true
	}
	if err := service.Require(session, allowed...); err != nil {
		g.logger.Warn("Role check failed",
			zap.Int64("user_id", session.UserID),
			zap.String("role", session.Role.String()),
			zap.String("path", r.URL.Path),
			zap.String("reason", "role_not_allowed"),
		)
		writeError(w, g.logger, err)
		return nil, false
	}
	return session, true
}

// Token the raw bearer token of r.
func (g *Guard) Token(r *http.Request) string { return bearerToken(r) }
