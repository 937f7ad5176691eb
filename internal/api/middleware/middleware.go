// Package middleware 提供 HTTP 层通用中间件：请求ID、访问日志与 API Key 校验。
package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	"github.com/rs/zerolog"
)

const (
	// RequestIDHeader 请求ID头，客户端传入时沿用
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey 请求ID在 RequestContext 中的键
	RequestIDKey = "request_id"
)

var errInvalidAPIKey = errors.New("API Key 无效")

// RequestID 为每个请求分配ID并写回响应头，同时把带 request_id 字段的日志放入 ctx
func RequestID(base zerolog.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Response.Header.Set(RequestIDHeader, id)

		l := base.With().Str(RequestIDKey, id).Logger()
		c.Next(l.WithContext(ctx))
	}
}

// AccessLog 记录方法、路径、状态码与耗时
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)

		status := c.Response.StatusCode()
		l := zerolog.Ctx(ctx)
		var event *zerolog.Event
		switch {
		case status >= consts.StatusInternalServerError:
			event = l.Error()
		case status >= consts.StatusBadRequest:
			event = l.Warn()
		default:
			event = l.Info()
		}
		event.
			Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str(RequestIDKey, c.GetString(RequestIDKey)).
			Msg("HTTP请求")
	}
}

// APIKey 校验请求头中的 API Key，keys 为空时不启用
// skip 返回 true 的请求不做校验，例如健康检查
func APIKey(keys []string, header string, skip func(c *app.RequestContext) bool) app.HandlerFunc {
	if len(keys) == 0 {
		return func(ctx context.Context, c *app.RequestContext) {
			c.Next(ctx)
		}
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+header, ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			if validKey(keys, key) {
				return true, nil
			}
			return false, errInvalidAPIKey
		}),
		keyauth.WithFilter(func(_ context.Context, c *app.RequestContext) bool {
			return skip != nil && skip(c)
		}),
		keyauth.WithErrorHandler(func(_ context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": err.Error()})
		}),
	)
}

func validKey(keys []string, key string) bool {
	ok := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			ok = true
		}
	}
	return ok
}
