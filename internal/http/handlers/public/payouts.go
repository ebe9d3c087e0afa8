package public

import (
	"strconv"

	"github.com/melodist-next/internal/http/response"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"
	"github.com/melodist-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RequestPayoutRequest 提现申请请求
type RequestPayoutRequest struct {
	Amount         float64 `json:"amount" binding:"required"`
	Currency       string  `json:"currency"`
	Method         string  `json:"method" binding:"required"`
	AccountDetails string  `json:"account_details"`
	StatementIDs   []uint  `json:"statement_ids"`
}

// RequestPayout 申请提现
func (h *Handler) RequestPayout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	payout, err := h.PayoutService.RequestPayout(service.RequestPayoutInput{
		UserID:         userID,
		Amount:         models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Amount)),
		Currency:       req.Currency,
		Method:         req.Method,
		AccountDetails: req.AccountDetails,
		StatementIDs:   req.StatementIDs,
	})
	if err != nil {
		if respondInsufficientBalanceError(c, err) {
			return
		}
		respondWithMappedError(c, err, payoutErrorRules, response.CodeInternal, "申请提现失败")
		return
	}
	response.Success(c, payout)
}

// CancelPayout 取消待处理的提现
func (h *Handler) CancelPayout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := h.PayoutService.CancelPayout(id, userID)
	if err != nil {
		respondWithMappedError(c, err, payoutErrorRules, response.CodeInternal, "取消提现失败")
		return
	}
	response.Success(c, payout)
}

// ListMyPayouts 分页获取当前艺人的提现列表
func (h *Handler) ListMyPayouts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	payouts, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
		Method:   c.Query("method"),
		Currency: c.Query("currency"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取提现列表失败", err)
		return
	}
	response.SuccessWithPage(c, payouts, response.BuildPagination(page, pageSize, total))
}

// GetMyPayout 获取当前艺人的提现详情
func (h *Handler) GetMyPayout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := h.PayoutService.GetPayout(id, userID)
	if err != nil {
		respondWithMappedError(c, err, payoutErrorRules, response.CodeInternal, "获取提现失败")
		return
	}
	response.Success(c, payout)
}
