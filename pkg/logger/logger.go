package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upeu-dev/vinculacion-api/pkg/config"
	"github.com/upeu-dev/vinculacion-api/pkg/middleware/requestid"
)

// New builds the process logger: JSON in production, console-friendly
// development output otherwise. Level and encoding come from LogConfig.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Env == config.EnvProduction {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Log.Format == "console" {
		zc.Encoding = "console"
	} else {
		zc.Encoding = "json"
	}
	if cfg.Log.Level != "" {
		if err := zc.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}

// GinMiddleware logs one structured line per request, carrying the request ID
// assigned upstream.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		l.Info("http_request", fields...)
	}
}
