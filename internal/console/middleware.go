package console

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nookcoder/clinic-console/internal/router"
)

const (
	ctxTarget   = "target"
	ctxDecision = "decision"
)

// NavigationGuard evaluates the guard for GET/HEAD page requests. Redirect
// decisions answer 302, a role mismatch answers 404 and proceeding stores the
// resolved target for the page handler.
func NavigationGuard(guard *router.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"statusCode": 404, "error": "Not found"})
			return
		}

		target, decision, err := guard.Navigate(c.Request.URL.RequestURI())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"statusCode": 400, "error": err.Error()})
			return
		}

		switch decision.Outcome {
		case router.OutcomeLogin, router.OutcomeHome:
			c.Redirect(http.StatusFound, decision.Redirect.String())
			c.Abort()
			return
		case router.OutcomeNotFound:
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"route": decision.Redirect.Name,
				"path":  target.Path,
			})
			return
		}

		c.Set(ctxTarget, target)
		c.Set(ctxDecision, decision)
		c.Next()
	}
}

// Authenticated is the part of the session store RequireSession needs.
type Authenticated interface {
	IsAuthenticated() bool
}

// RequireSession rejects API calls without a session with 401 JSON instead
// of a login redirect.
func RequireSession(s Authenticated) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": 401, "error": "Not signed in"})
			return
		}
		c.Next()
	}
}
