package middleware

import (
	stderrors "errors"
	"net/http"

	"moviecatalog/pkg/auth"
	apierrors "moviecatalog/pkg/errors"
	"moviecatalog/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// Verifier validates the raw Authorization header value
type Verifier interface {
	Verify(header string) (*auth.Claims, error)
}

// AuthMiddleware JWT authentication middleware.
//
// A request without an extractable token is rejected with a bare 401; a token
// that fails verification with a bare 403. On success the identity is attached
// to the request context for the handlers below.
func AuthMiddleware(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.Verify(c.GetHeader("Authorization"))
		if err != nil {
			if stderrors.Is(err, auth.ErrMissingToken) {
				Abort(c, apierrors.ErrUnauthenticated.WithCause(err))
			} else {
				Abort(c, apierrors.ErrInvalidCredential.WithCause(err))
			}
			return
		}

		ctx := auth.WithIdentity(c.Request.Context(), claims.Identity())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole middleware to check the caller's role against a fixed set.
// It must be chained after AuthMiddleware.
func RequireRole(allowed auth.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			// route wiring bug, not a client error
			Abort(c, apierrors.ErrInternalServerError)
			return
		}

		if err := auth.Authorize(id, allowed); err != nil {
			Abort(c, apierrors.ErrForbidden.WithCause(err))
			return
		}

		c.Next()
	}
}

// GetIdentity extracts the verified identity from the request context
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	return auth.IdentityFromContext(c.Request.Context())
}

// Abort records err on the context and writes the error response.
// Auth denials are bare status responses with no payload.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)

	status := apierrors.HTTPStatus(err)
	if apierrors.IsAuthDenial(err) {
		monitoring.AuthDenialsTotal.WithLabelValues(apierrors.Reason(err)).Inc()
		c.AbortWithStatus(status)
		return
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, apierrors.NewErrorResponse(err))
}
