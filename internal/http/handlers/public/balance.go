package public

import (
	"github.com/melodist-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetMyBalance 获取当前艺人的可提现余额快照
func (h *Handler) GetMyBalance(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	snapshot, err := h.BalanceService.GetAvailableBalance(userID, c.Query("currency"))
	if err != nil {
		respondError(c, response.CodeInternal, "获取余额失败", err)
		return
	}
	response.Success(c, snapshot)
}
