package fraud

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/richxcame/creator-reviews/pkg/logger"
	"go.uber.org/zap"
)

// ReviewDecision is a terminal moderation outcome applied as one unit: the
// review status, the matching reward ledger entry, and the balance movement
// commit together or not at all.
type ReviewDecision struct {
	ReviewID     uuid.UUID
	UserID       uuid.UUID
	Status       ReviewStatus
	RewardAmount float64
	// CreditAvailable moves the reward from pending to available balance on
	// approval; rejection only removes it from pending.
	CreditAvailable bool
}

// LedgerUpdater propagates verdicts into review status, the wallet ledger and
// user balances through the repository's transactional decision application.
type LedgerUpdater struct {
	repo         FraudRepository
	rewardAmount float64
}

// NewLedgerUpdater creates a ledger updater with the configured reward amount
func NewLedgerUpdater(repo FraudRepository, rewardAmount float64) *LedgerUpdater {
	return &LedgerUpdater{repo: repo, rewardAmount: rewardAmount}
}

// ApproveReview finalizes a review as approved and releases its pending reward
func (l *LedgerUpdater) ApproveReview(ctx context.Context, review *Review) error {
	decision := &ReviewDecision{
		ReviewID:        review.ID,
		UserID:          review.UserID,
		Status:          ReviewStatusApproved,
		RewardAmount:    l.rewardAmount,
		CreditAvailable: true,
	}

	if err := l.repo.ApplyReviewDecision(ctx, decision); err != nil {
		return fmt.Errorf("apply approve decision for review %s: %w", review.ID, err)
	}

	logger.WithContext(ctx).Info("review auto-approved, reward released",
		zap.String("review_id", review.ID.String()),
		zap.String("user_id", review.UserID.String()),
		zap.Float64("reward_amount", l.rewardAmount),
	)
	return nil
}

// RejectReview finalizes a review as rejected and voids its pending reward
func (l *LedgerUpdater) RejectReview(ctx context.Context, review *Review) error {
	decision := &ReviewDecision{
		ReviewID:     review.ID,
		UserID:       review.UserID,
		Status:       ReviewStatusRejected,
		RewardAmount: l.rewardAmount,
	}

	if err := l.repo.ApplyReviewDecision(ctx, decision); err != nil {
		return fmt.Errorf("apply reject decision for review %s: %w", review.ID, err)
	}

	logger.WithContext(ctx).Info("review auto-rejected, pending reward removed",
		zap.String("review_id", review.ID.String()),
		zap.String("user_id", review.UserID.String()),
	)
	return nil
}
