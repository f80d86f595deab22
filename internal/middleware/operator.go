package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/teamcore-backend/internal/logger"
)

const (
	OperatorHeader     = "X-Operator-ID"
	operatorContextKey = "operator_id"
)

// OperatorMiddleware extracts the acting user's id from the gateway-supplied
// header. Authentication itself happens upstream; an absent header on a
// mutating route is a client error here.
type OperatorMiddleware struct {
	log *logger.Logger
}

func NewOperatorMiddleware(log *logger.Logger) *OperatorMiddleware {
	return &OperatorMiddleware{log: log.With("middleware", "operator")}
}

func (m *OperatorMiddleware) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if operatorID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"message": "missing " + OperatorHeader + " header", "code": "missing_operator"},
			})
			return
		}
		c.Set(operatorContextKey, operatorID)
		c.Next()
	}
}

// OperatorID returns the id set by RequireOperator, empty when the route did
// not pass through it.
func OperatorID(c *gin.Context) string {
	return c.GetString(operatorContextKey)
}
