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

// AddSplitRequest 添加协作者分成请求
type AddSplitRequest struct {
	ScopeType         string  `json:"scope_type" binding:"required"`
	ScopeID           uint    `json:"scope_id" binding:"required"`
	SplitType         string  `json:"split_type" binding:"required"`
	CollaboratorName  string  `json:"collaborator_name" binding:"required"`
	CollaboratorEmail string  `json:"collaborator_email"`
	Role              string  `json:"role"`
	Percentage        float64 `json:"percentage" binding:"required"`
}

// AddSplit 添加协作者分成
func (h *Handler) AddSplit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req AddSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	split, err := h.SplitService.AddSplit(service.AddSplitInput{
		ScopeType:         req.ScopeType,
		ScopeID:           req.ScopeID,
		SplitType:         req.SplitType,
		OwnerUserID:       userID,
		CollaboratorName:  req.CollaboratorName,
		CollaboratorEmail: req.CollaboratorEmail,
		Role:              req.Role,
		Percentage:        models.NewPercentFromDecimal(decimal.NewFromFloat(req.Percentage)),
	})
	if err != nil {
		if respondSplitAllocationError(c, err) {
			return
		}
		respondWithMappedError(c, err, splitErrorRules, response.CodeInternal, "添加分成失败")
		return
	}
	response.Success(c, split)
}

// RemoveSplit 删除协作者分成
func (h *Handler) RemoveSplit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.SplitService.RemoveSplit(id, userID); err != nil {
		respondWithMappedError(c, err, splitErrorRules, response.CodeInternal, "删除分成失败")
		return
	}
	response.Success(c, nil)
}

// GetSplitAllocation 查询某范围某类型的分成占用情况
func (h *Handler) GetSplitAllocation(c *gin.Context) {
	scopeType := c.Query("scope_type")
	splitType := c.Query("split_type")
	scopeID, err := strconv.ParseUint(c.Query("scope_id"), 10, 64)
	if err != nil || scopeID == 0 {
		respondError(c, response.CodeBadRequest, "scope_id 参数无效", nil)
		return
	}

	allocation, err := h.SplitService.GetAllocation(scopeType, uint(scopeID), splitType)
	if err != nil {
		respondWithMappedError(c, err, splitErrorRules, response.CodeInternal, "获取分成占用失败")
		return
	}
	response.Success(c, allocation)
}

// ListSplits 分页获取协作者分成列表
func (h *Handler) ListSplits(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	scopeID, _ := strconv.ParseUint(c.Query("scope_id"), 10, 64)

	splits, total, err := h.SplitService.ListSplits(repository.SplitListFilter{
		Page:        page,
		PageSize:    pageSize,
		ScopeType:   c.Query("scope_type"),
		ScopeID:     uint(scopeID),
		SplitType:   c.Query("split_type"),
		OwnerUserID: userID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取分成列表失败", err)
		return
	}
	response.SuccessWithPage(c, splits, response.BuildPagination(page, pageSize, total))
}
