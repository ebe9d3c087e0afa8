package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/melodist-next/internal/logger"
	"github.com/melodist-next/internal/provider"
	"github.com/melodist-next/internal/queue"
	"github.com/melodist-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPayoutStatusEmail, c.handlePayoutStatusEmail)
}

func (c *Consumer) handlePayoutStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payout_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PayoutStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payout_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.PayoutID == 0 {
		logger.Debugw("worker_payout_status_email_skip_invalid_payload", "payout_id", payload.PayoutID)
		return nil
	}
	payout, err := c.PayoutService.GetPayout(payload.PayoutID, 0)
	if err != nil {
		if errors.Is(err, service.ErrPayoutStateInvalid) {
			logger.Debugw("worker_payout_status_email_skip_payout_not_found", "payout_id", payload.PayoutID)
			return nil
		}
		logger.Warnw("worker_payout_status_email_fetch_payout_failed", "payout_id", payload.PayoutID, "error", err)
		return err
	}
	user, err := c.UserRepo.GetByID(payout.UserID)
	if err != nil {
		logger.Warnw("worker_payout_status_email_fetch_user_failed", "payout_id", payout.ID, "user_id", payout.UserID, "error", err)
		return err
	}
	if user == nil {
		logger.Debugw("worker_payout_status_email_skip_user_not_found", "payout_id", payout.ID, "user_id", payout.UserID)
		return nil
	}
	receiverEmail := strings.TrimSpace(user.Email)
	if receiverEmail == "" {
		logger.Debugw("worker_payout_status_email_skip_empty_receiver", "payout_id", payout.ID, "user_id", user.ID)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = payout.Status
	}
	// 邮件通道尚未接入，先落日志保证状态流转可审计
	logger.Infow("worker_payout_status_email_dispatched",
		"payout_id", payout.ID,
		"user_id", user.ID,
		"receiver_email", receiverEmail,
		"status", status,
		"amount", payout.Amount.String(),
		"currency", payout.Currency,
	)
	return nil
}
