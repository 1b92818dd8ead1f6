package middleware

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/Solvium/SolviumAI-sub000/types"
	"github.com/gin-gonic/gin"
)

// Timeout creates a middleware that bounds request handling time. The
// deadline propagates through the request context, so downstream ledger
// calls observe it and classify their own outcome.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})

		go func() {
			c.Next()
			close(done)
		}()

		select {
		case <-done:
			// Request completed normally
		case <-ctx.Done():
			c.AbortWithStatusJSON(http.StatusRequestTimeout, types.ErrorResponse{
				StatusCode: http.StatusRequestTimeout,
				IsSuccess:  false,
				Error: types.ErrorDetail{
					Timestamp:    time.Now().Format(time.RFC3339),
					Path:         c.Request.URL.Path,
					ErrorMessage: "Request timeout",
					ErrorCode:    apperrors.ErrServiceUnavailable,
					Retryable:    true,
				},
			})
		}
	}
}
