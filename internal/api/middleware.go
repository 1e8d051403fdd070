package api

import (
	"net/http"
	"strconv"
	"time"

	"armybuilder/internal/i18n"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ctxLang = "lang"

// Lang returns the language resolved for the request.
func Lang(c *gin.Context) string {
	if v, ok := c.Get(ctxLang); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return i18n.DefaultLang
}

// LocaleMiddleware resolves the request language, persists an explicit
// choice in a cookie and announces it in Content-Language.
func LocaleMiddleware(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang, persist := i18n.Resolve(c.Request, fallback)
		if persist {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     i18n.LangCookieName,
				Value:    lang,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(ctxLang, lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

// RequestLogger logs one line per request and feeds the HTTP metrics.
func RequestLogger(log *zap.Logger, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		if m != nil {
			m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
			m.Latency.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("lang", Lang(c)),
		}
		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}
