package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/controlplane/handlers"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
)

const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// RateLimiter limits requests per client ip. formattedRate follows the
// limiter format, e.g. "20-S".
func RateLimiter(formattedRate string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, err
	}
	return mgin.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handlers.ControlPlaneError{
				ErrorCode: ErrCodeRateLimited,
				Error:     "rate limit exceeded",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ControlPlaneError{
				ErrorCode: handlers.ErrCodeUnknownError,
				Error:     err.Error(),
			})
		}),
	), nil
}
