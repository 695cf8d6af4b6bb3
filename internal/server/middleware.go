package server

import (
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	obscontext "github.com/smallbiznis/invoicedesk/internal/observability/context"
)

const contextPrincipalKey = "principal"

// AuthRequired authenticates the operator with HTTP Basic credentials and
// checks the route against the operator's role.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		principal, err := s.authSvc.Authenticate(ctx, username, password)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.authSvc.Authorize(ctx, principal, c.Request.URL.Path, c.Request.Method); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPrincipalKey, principal)
		c.Request = c.Request.WithContext(obscontext.WithActor(ctx, principal.Username))
		c.Next()
	}
}

func principalFromContext(c *gin.Context) (authdomain.Principal, bool) {
	v, ok := c.Get(contextPrincipalKey)
	if !ok {
		return authdomain.Principal{}, false
	}
	p, ok := v.(authdomain.Principal)
	return p, ok
}
