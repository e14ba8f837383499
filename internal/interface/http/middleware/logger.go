package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mediastore/pkg/logger"
	"github.com/xiebiao/mediastore/pkg/tracing"
)

// slowRequest 超过该耗时的请求记为警告
const slowRequest = 3 * time.Second

// Logger 结构化请求日志
// 只记录方法、路由、状态码、耗时和错误，不记录请求体
func Logger(log logger.Interface) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		kv := []interface{}{
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency", latency,
			"client_ip", c.ClientIP(),
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			kv = append(kv, "trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("请求失败", kv...)
		case latency > slowRequest:
			log.Warnw("慢请求", kv...)
		case status >= 400:
			log.Infow("请求被拒绝", kv...)
		default:
			log.Debugw("请求完成", kv...)
		}
	}
}
