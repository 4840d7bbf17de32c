package inbox

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fedinbox/internal/gateway"
	"fedinbox/internal/models"
	"fedinbox/internal/utils"
)

// Handler 收件箱 HTTP 入口。签名验证在上游中间件完成，
// 这里只做最小校验然后入队，处理全在 worker 里
type Handler struct {
	accounts  gateway.Accounts
	publisher EnvelopePublisher
}

func NewHandler(accounts gateway.Accounts, publisher EnvelopePublisher) *Handler {
	return &Handler{accounts: accounts, publisher: publisher}
}

func (h *Handler) PostInbox(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "读取请求体失败")
		return
	}

	var probe struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Actor string `json:"actor"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.ID == "" || probe.Type == "" || probe.Actor == "" {
		utils.Error(c, http.StatusUnprocessableEntity, "活动缺少 id/type/actor")
		return
	}

	account, err := h.accounts.FindByURI(c.Request.Context(), probe.Actor)
	if errors.Is(err, gateway.ErrNotFound) {
		// 验签层会先把 actor 落到本地，这里查不到就当没见过，直接吞掉
		zap.L().Warn("activity from unknown actor dropped",
			zap.String("actor", probe.Actor), zap.String("activity_id", probe.ID))
		c.Status(http.StatusAccepted)
		return
	}
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "存储不可用")
		return
	}

	msg := models.InboxMsg{Raw: body, ActorID: account.ID}
	if err := h.publisher.PublishInbox(c.Request.Context(), msg); err != nil {
		zap.L().Error("inbox enqueue failed", zap.String("activity_id", probe.ID), zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "入队失败")
		return
	}

	c.Status(http.StatusAccepted)
}
