package auth

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that admits only principals whose role
// equals the single given role. The rejection message names the role, e.g.
// "Admin access required".
func RequireRole(role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil || !p.Role.Valid() || p.Role != role {
				return c.JSON(http.StatusForbidden,
					map[string]string{"message": fmt.Sprintf("%s access required", role)})
			}
			return next(c)
		}
	}
}

// RestrictTo returns middleware that admits principals whose role is a
// member of the supplied set. Unknown roles fail closed.
func RestrictTo(roles ...Role) echo.MiddlewareFunc {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil || !p.Role.Valid() || !allowed[p.Role] {
				return c.JSON(http.StatusForbidden,
					map[string]string{"message": "You do not have permission to perform this action"})
			}
			return next(c)
		}
	}
}
