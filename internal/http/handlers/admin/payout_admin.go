package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/melodist-next/internal/http/response"
	"github.com/melodist-next/internal/repository"
	"github.com/melodist-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListPayouts 获取提现列表
func (h *Handler) AdminListPayouts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数格式无效", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数格式无效", err)
		return
	}

	payouts, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      uint(userID),
		Status:      c.Query("status"),
		Method:      c.Query("method"),
		Currency:    c.Query("currency"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取提现列表失败", err)
		return
	}
	response.SuccessWithPage(c, payouts, response.BuildPagination(page, pageSize, total))
}

// AdminGetPayout 获取提现详情
func (h *Handler) AdminGetPayout(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	payout, err := h.PayoutService.GetPayout(id, 0)
	if err != nil {
		respondAdminPayoutError(c, err, "获取提现失败")
		return
	}
	response.Success(c, payout)
}

// ProcessPayoutRequest 受理提现请求
type ProcessPayoutRequest struct {
	PaymentReference string `json:"payment_reference"`
}

// AdminProcessPayout 受理提现，进入打款流程
func (h *Handler) AdminProcessPayout(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req ProcessPayoutRequest
	// 请求体可为空，打款凭证可后补
	_ = c.ShouldBindJSON(&req)

	payout, err := h.PayoutService.ProcessPayout(id, adminID, req.PaymentReference)
	if err != nil {
		respondAdminPayoutError(c, err, "受理提现失败")
		return
	}

	requestLog(c).Infow("admin_payout_processing",
		"payout_id", payout.ID,
		"operator_admin_id", adminID,
	)
	response.Success(c, payout)
}

// CompletePayoutRequest 完成提现请求
type CompletePayoutRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// AdminCompletePayout 标记提现打款成功
func (h *Handler) AdminCompletePayout(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req CompletePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	payout, err := h.PayoutService.CompletePayout(id, adminID, req.TransactionID)
	if err != nil {
		respondAdminPayoutError(c, err, "完成提现失败")
		return
	}

	requestLog(c).Infow("admin_payout_completed",
		"payout_id", payout.ID,
		"operator_admin_id", adminID,
		"transaction_id", req.TransactionID,
	)
	response.Success(c, payout)
}

// FailPayoutRequest 提现失败请求
type FailPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AdminFailPayout 标记提现打款失败，释放余额
func (h *Handler) AdminFailPayout(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req FailPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	payout, err := h.PayoutService.FailPayout(id, adminID, req.Reason)
	if err != nil {
		respondAdminPayoutError(c, err, "标记提现失败出错")
		return
	}

	requestLog(c).Infow("admin_payout_failed",
		"payout_id", payout.ID,
		"operator_admin_id", adminID,
		"reason", req.Reason,
	)
	response.Success(c, payout)
}

func respondAdminPayoutError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrPayoutStateInvalid):
		respondError(c, response.CodeNotFound, "提现不存在或状态不允许该操作", nil)
	case errors.Is(err, service.ErrPayoutAmountInvalid):
		respondError(c, response.CodeBadRequest, "提现金额无效", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
