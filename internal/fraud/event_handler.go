package fraud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richxcame/creator-reviews/pkg/eventbus"
	"github.com/richxcame/creator-reviews/pkg/logger"
	"go.uber.org/zap"
)

// EventHandler evaluates reviews asynchronously as they are submitted.
type EventHandler struct {
	reviews *ReviewService
	bus     *eventbus.Bus
}

// NewEventHandler creates an event handler backed by the review evaluator.
func NewEventHandler(reviews *ReviewService, bus *eventbus.Bus) *EventHandler {
	return &EventHandler{reviews: reviews, bus: bus}
}

// RegisterSubscriptions subscribes to review submission events on the bus.
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, bus *eventbus.Bus) error {
	if err := bus.Subscribe(ctx, eventbus.SubjectReviewSubmitted, "antifraud-review-submitted", h.handleReviewSubmitted); err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventbus.SubjectReviewSubmitted, err)
	}
	logger.Info("fraud: subscribed to review submission events")
	return nil
}

func (h *EventHandler) handleReviewSubmitted(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.ReviewSubmittedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal review submitted: %w", err)
	}

	logger.Info("fraud: evaluating submitted review",
		zap.String("review_id", data.ReviewID.String()),
		zap.String("user_id", data.UserID.String()),
	)

	// A failed evaluation is returned for redelivery; it must never fall
	// through to an approval.
	verdict, err := h.reviews.EvaluateReviewSubmission(ctx, data.ReviewID)
	if err != nil {
		logger.Error("fraud: review evaluation failed",
			zap.String("review_id", data.ReviewID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("evaluate review %s: %w", data.ReviewID, err)
	}

	// Announce terminal decisions so downstream services (notifications,
	// admin queue) can react.
	if verdict.AutoApprove || !verdict.Passed {
		status := string(ReviewStatusRejected)
		if verdict.AutoApprove {
			status = string(ReviewStatusApproved)
		}

		moderated := eventbus.ReviewModeratedData{
			ReviewID:     data.ReviewID,
			UserID:       data.UserID,
			Status:       status,
			RiskScore:    verdict.RiskScore,
			Flags:        verdict.Flags,
			AutoApproved: verdict.AutoApprove,
		}
		if err := h.bus.Publish(ctx, eventbus.SubjectReviewModerated, data.ReviewID.String(), moderated); err != nil {
			logger.Warn("fraud: failed to publish moderation event",
				zap.String("review_id", data.ReviewID.String()),
				zap.Error(err),
			)
		}
	}

	return nil
}
