package public

import (
	"strconv"

	"github.com/melodist-next/internal/http/response"
	"github.com/melodist-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListMyStatements 分页获取当前艺人的结算单列表
func (h *Handler) ListMyStatements(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	statements, total, err := h.StatementService.ListStatements(repository.StatementListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Platform: c.Query("platform"),
		Status:   c.Query("status"),
		Currency: c.Query("currency"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取结算单列表失败", err)
		return
	}
	response.SuccessWithPage(c, statements, response.BuildPagination(page, pageSize, total))
}

// GetMyStatement 获取当前艺人的结算单详情
func (h *Handler) GetMyStatement(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	statement, err := h.StatementService.GetStatement(id, userID)
	if err != nil {
		respondWithMappedError(c, err, statementErrorRules, response.CodeInternal, "获取结算单失败")
		return
	}
	response.Success(c, statement)
}
