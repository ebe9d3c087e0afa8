package public

import (
	"errors"

	"github.com/melodist-next/internal/http/response"
	"github.com/melodist-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var catalogErrorRules = []mappedHandlerError{
	{target: service.ErrReleaseNotFound, code: response.CodeNotFound, msg: "发行物不存在"},
	{target: service.ErrTrackNotFound, code: response.CodeNotFound, msg: "曲目不存在"},
	{target: service.ErrReleaseStatusInvalid, code: response.CodeBadRequest, msg: "发行物当前状态不允许该操作"},
	{target: service.ErrReleaseTypeInvalid, code: response.CodeBadRequest, msg: "发行物类型无效"},
}

var splitErrorRules = []mappedHandlerError{
	{target: service.ErrReleaseNotFound, code: response.CodeNotFound, msg: "发行物不存在"},
	{target: service.ErrTrackNotFound, code: response.CodeNotFound, msg: "曲目不存在"},
	{target: service.ErrSplitNotFound, code: response.CodeNotFound, msg: "分成记录不存在"},
	{target: service.ErrSplitScopeInvalid, code: response.CodeBadRequest, msg: "分成范围无效"},
	{target: service.ErrSplitTypeInvalid, code: response.CodeBadRequest, msg: "分成类型无效"},
	{target: service.ErrSplitPercentageInvalid, code: response.CodeBadRequest, msg: "分成比例无效"},
	{target: service.ErrSplitCollaboratorInvalid, code: response.CodeBadRequest, msg: "协作者信息无效"},
}

var payoutErrorRules = []mappedHandlerError{
	{target: service.ErrPayoutStateInvalid, code: response.CodeNotFound, msg: "提现不存在或状态不允许该操作"},
	{target: service.ErrPayoutAmountInvalid, code: response.CodeBadRequest, msg: "提现金额无效"},
	{target: service.ErrPayoutMethodInvalid, code: response.CodeBadRequest, msg: "提现方式无效"},
	{target: service.ErrPayoutBelowMinimum, code: response.CodeBadRequest, msg: "提现金额低于最低限额"},
	{target: service.ErrPayoutStatementInvalid, code: response.CodeBadRequest, msg: "关联结算单无效"},
}

var statementErrorRules = []mappedHandlerError{
	{target: service.ErrStatementNotFound, code: response.CodeNotFound, msg: "结算单不存在"},
}

// respondSplitAllocationError 分成超限时返回剩余可分配比例。
func respondSplitAllocationError(c *gin.Context, err error) bool {
	var allocErr *service.AllocationExceededError
	if !errors.As(err, &allocErr) {
		return false
	}
	response.ErrorWithData(c, response.CodeBadRequest, "分成比例超出可分配上限", gin.H{
		"requested": allocErr.Requested.Round(1).StringFixed(1),
		"available": allocErr.Available.Round(1).StringFixed(1),
	})
	return true
}

// respondInsufficientBalanceError 余额不足时返回余额快照。
func respondInsufficientBalanceError(c *gin.Context, err error) bool {
	var balanceErr *service.InsufficientBalanceError
	if !errors.As(err, &balanceErr) {
		return false
	}
	response.ErrorWithData(c, response.CodeBadRequest, "可提现余额不足", gin.H{
		"requested": balanceErr.Requested.Round(2).StringFixed(2),
		"balance":   balanceErr.Snapshot,
	})
	return true
}
