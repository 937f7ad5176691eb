package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// HandleCreateSession 创建会话
// POST /api/v1/sessions
func (h *Handler) HandleCreateSession(ctx context.Context, c *app.RequestContext) {
	store, err := h.sessions.Create()
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, utils.H{
		"session_id": store.ID(),
		"created_at": store.CreatedAt(),
	})
}

// HandleEndSession 结束会话，记录与原始文件一并清理
// DELETE /api/v1/sessions/:session_id
func (h *Handler) HandleEndSession(ctx context.Context, c *app.RequestContext) {
	if err := h.sessions.End(ctx, c.Param("session_id")); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.Status(consts.StatusNoContent)
}
