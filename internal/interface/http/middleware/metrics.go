package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/compactstock/pkg/metrics"
)

// Metrics 记录HTTP请求数、耗时和处理中的请求数
// path标签用路由模板（c.FullPath），未匹配的路由统一记为unmatched，避免标签爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncHTTPInProgress()
		defer metrics.DecHTTPInProgress()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
