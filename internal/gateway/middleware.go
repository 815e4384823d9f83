package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxRequestID    = "requestId"
)

// requestID reuses the caller's id when present so logs line up across services.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

func accessLog(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("http request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Info("http request", fields...)
		default:
			log.Debug("http request", fields...)
		}
	}
}

// authenticate resolves the bearer token into an actor on the request context.
func authenticate(parser *auth.TokenParser, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || parser == nil {
			if required {
				abortWithError(c, apperr.Unauthenticated("missing bearer token"))
				return
			}
			c.Next()
			return
		}

		actor, err := parser.Parse(header)
		if err != nil {
			abortWithError(c, apperr.Unauthenticated("invalid bearer token"))
			return
		}
		c.Request = c.Request.WithContext(auth.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Entity    string `json:"entity,omitempty"`
	RequestID string `json:"requestId"`
	Result    any    `json:"result,omitempty"`
}

func envelope(c *gin.Context, err error) (int, errorBody) {
	body := errorBody{RequestID: c.GetString(ctxRequestID)}
	var e *apperr.Error
	if !errors.As(err, &e) {
		body.Error = "internal error"
		body.Code = "INTERNAL"
		return http.StatusInternalServerError, body
	}
	body.Code = string(e.Kind)
	body.Entity = e.Entity
	body.Error = e.Reason
	if e.Kind == apperr.KindStorageUnavailable {
		body.Error = "storage unavailable"
	}
	return e.Kind.HTTPStatus(), body
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := envelope(c, err)
	c.AbortWithStatusJSON(status, body)
}

// abortWithPartial is abortWithError plus whatever was committed before the failure.
func abortWithPartial(c *gin.Context, err error, partial any) {
	_ = c.Error(err)
	status, body := envelope(c, err)
	body.Result = partial
	c.AbortWithStatusJSON(status, body)
}
