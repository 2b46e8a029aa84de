package system

import (
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sure-link/core/internal/pkg/response"
)

// OnlineCounter reports how many clients are connected right now.
type OnlineCounter interface {
	OnlineCount() int
}

type Handler struct {
	svc         *Service
	online      OnlineCounter
	adminSecret string
}

func NewHandler(svc *Service, online OnlineCounter, adminSecret string) *Handler {
	return &Handler{svc: svc, online: online, adminSecret: adminSecret}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/test", h.test)
	api.GET("/health", h.health)
	api.GET("/stats", h.stats)
	api.POST("/cleanup", h.cleanup)
}

func (h *Handler) test(c *gin.Context) {
	response.OK(c, gin.H{
		"message":   "サーバーは正常に動作しています",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) health(c *gin.Context) {
	response.OK(c, h.svc.Health())
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(h.online.OnlineCount())
	if err != nil {
		response.InternalError(c, "統計情報の取得に失敗しました")
		return
	}
	response.OK(c, stats)
}

func (h *Handler) cleanup(c *gin.Context) {
	if !h.authorized(c) {
		response.Forbidden(c, "管理者権限が必要です")
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(c, "days には正の整数を指定してください")
			return
		}
		days = parsed
	}

	result, err := h.svc.Cleanup(days)
	if err != nil {
		response.InternalError(c, "クリーンアップに失敗しました")
		return
	}
	response.OK(c, result)
}

func (h *Handler) authorized(c *gin.Context) bool {
	if h.adminSecret == "" {
		return false
	}
	secret := c.GetHeader("X-Admin-Secret")
	if secret == "" {
		secret = c.Query("secret")
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.adminSecret)) == 1
}
