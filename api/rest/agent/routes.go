package agent

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	agentcore "codeberg.org/algrv/codelab/internal/agent"
	"codeberg.org/algrv/codelab/internal/auth"
	"codeberg.org/algrv/codelab/internal/errors"
)

// registers the model-invoking routes. rate is a limiter format such as
// "10-M" and is applied per workspace.
func RegisterRoutes(router *gin.RouterGroup, source WorkspaceSource, agentClient *agentcore.Agent, rate string) error {
	limit, err := RateLimitMiddleware(rate)
	if err != nil {
		return err
	}

	ws := router.Group("/workspaces/:id", auth.WorkspaceMiddleware(), limit)
	{
		ws.POST("/run", RunHandler(source, agentClient))
		ws.POST("/apply", ApplyHandler(source))
	}

	return nil
}

// limits requests per workspace using an in-memory store
func RateLimitMiddleware(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), r)

	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return c.Param("id")
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			errors.TooManyRequests(c, "too many generation requests, try again later")
		}),
	), nil
}
