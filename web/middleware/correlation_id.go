package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/fxboard/util"
)

const CorrelationIdKey string = "X-Correlation-ID"

// CorrelationIdMiddleware reuses the caller's correlation id or issues a new one,
// echoes it in the response and stores it on the request context.
func CorrelationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader(CorrelationIdKey)
		if correlationId == "" || len(correlationId) > 128 {
			correlationId = util.NewUUID()
		}
		c.Header(CorrelationIdKey, correlationId)
		ctx := util.CorrelationIdToCtx(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
