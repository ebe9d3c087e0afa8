package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/melodist-next/internal/http/response"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"
	"github.com/melodist-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateStatementRequest 录入结算单请求
type CreateStatementRequest struct {
	UserID       uint    `json:"user_id" binding:"required"`
	Platform     string  `json:"platform" binding:"required"`
	PeriodStart  string  `json:"period_start" binding:"required"`
	PeriodEnd    string  `json:"period_end" binding:"required"`
	Currency     string  `json:"currency"`
	GrossRevenue float64 `json:"gross_revenue" binding:"required"`
	FeeAmount    float64 `json:"fee_amount"`
	StreamCount  int64   `json:"stream_count"`
	Generated    bool    `json:"generated"`
}

// AdminCreateStatement 录入平台结算单
func (h *Handler) AdminCreateStatement(c *gin.Context) {
	var req CreateStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	periodStart, err := time.Parse("2006-01-02", strings.TrimSpace(req.PeriodStart))
	if err != nil {
		respondError(c, response.CodeBadRequest, "结算周期格式无效", nil)
		return
	}
	periodEnd, err := time.Parse("2006-01-02", strings.TrimSpace(req.PeriodEnd))
	if err != nil {
		respondError(c, response.CodeBadRequest, "结算周期格式无效", nil)
		return
	}

	statement, err := h.StatementService.CreateStatement(service.CreateStatementInput{
		UserID:       req.UserID,
		Platform:     req.Platform,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Currency:     req.Currency,
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromFloat(req.GrossRevenue)),
		FeeAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(req.FeeAmount)),
		StreamCount:  req.StreamCount,
		Generated:    req.Generated,
	})
	if err != nil {
		respondAdminStatementError(c, err, "录入结算单失败")
		return
	}
	response.Success(c, statement)
}

// AdminListStatements 获取结算单列表
func (h *Handler) AdminListStatements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	periodFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("period_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数格式无效", err)
		return
	}
	periodTo, err := parseTimeNullable(strings.TrimSpace(c.Query("period_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数格式无效", err)
		return
	}

	statements, total, err := h.StatementService.ListStatements(repository.StatementListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uint(userID),
		Platform:   c.Query("platform"),
		Status:     c.Query("status"),
		Currency:   c.Query("currency"),
		PeriodFrom: periodFrom,
		PeriodTo:   periodTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取结算单列表失败", err)
		return
	}
	response.SuccessWithPage(c, statements, response.BuildPagination(page, pageSize, total))
}

// AdminGetStatement 获取结算单详情
func (h *Handler) AdminGetStatement(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	statement, err := h.StatementService.GetStatement(id, 0)
	if err != nil {
		respondAdminStatementError(c, err, "获取结算单失败")
		return
	}
	response.Success(c, statement)
}

// AdminMarkStatementGenerated 标记结算单已生成
func (h *Handler) AdminMarkStatementGenerated(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	statement, err := h.StatementService.MarkGenerated(id)
	if err != nil {
		respondAdminStatementError(c, err, "标记结算单失败")
		return
	}
	response.Success(c, statement)
}

// AdminFinalizeStatement 定稿结算单，金额计入可提现余额
func (h *Handler) AdminFinalizeStatement(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	statement, err := h.StatementService.FinalizeStatement(id)
	if err != nil {
		respondAdminStatementError(c, err, "定稿结算单失败")
		return
	}

	requestLog(c).Infow("admin_statement_finalized",
		"statement_id", statement.ID,
		"user_id", statement.UserID,
	)
	response.Success(c, statement)
}

// MarkStatementPaidRequest 标记已支付请求
type MarkStatementPaidRequest struct {
	PaymentReference string `json:"payment_reference"`
}

// AdminMarkStatementPaid 标记结算单已随提现支付
func (h *Handler) AdminMarkStatementPaid(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req MarkStatementPaidRequest
	// 请求体可为空，支付凭证可后补
	_ = c.ShouldBindJSON(&req)

	statement, err := h.StatementService.MarkPaid(id, req.PaymentReference)
	if err != nil {
		respondAdminStatementError(c, err, "标记结算单失败")
		return
	}
	response.Success(c, statement)
}

func respondAdminStatementError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrStatementNotFound):
		respondError(c, response.CodeNotFound, "结算单不存在", nil)
	case errors.Is(err, service.ErrStatementExists):
		respondError(c, response.CodeBadRequest, "同一周期的结算单已存在", nil)
	case errors.Is(err, service.ErrStatementStatusInvalid):
		respondError(c, response.CodeBadRequest, "结算单当前状态不允许该操作", nil)
	case errors.Is(err, service.ErrStatementAmountInvalid):
		respondError(c, response.CodeBadRequest, "结算金额无效", nil)
	case errors.Is(err, service.ErrStatementPlatformInvalid):
		respondError(c, response.CodeBadRequest, "结算平台无效", nil)
	case errors.Is(err, service.ErrStatementPeriodInvalid):
		respondError(c, response.CodeBadRequest, "结算周期无效", nil)
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "用户不存在", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
