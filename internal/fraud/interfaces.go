package fraud

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrReviewNotFound is returned by GetReviewByID when the review does not
// exist. A missing review is the one lookup failure that is fatal to an
// evaluation, so it must stay distinguishable from infrastructure errors.
var ErrReviewNotFound = errors.New("review not found")

// FraudRepository defines the storage lookups and writes the evaluators need.
// Implementations must return zero-value profiles and zero counts instead of
// errors when a record simply does not exist; a hard error from any lookup is
// treated by the evaluators as "no evidence", never as a failed evaluation.
type FraudRepository interface {
	// Creator duplicate detection
	FindCreatorsExcludingStatus(ctx context.Context, exclude CreatorStatus) ([]Creator, error)
	FindPlatformLinksByURL(ctx context.Context, url string, exclude CreatorStatus) ([]PlatformLink, error)
	FindPlatformLinksByPlatform(ctx context.Context, platform string, exclude CreatorStatus) ([]PlatformLink, error)

	// User risk state
	GetUserRiskProfile(ctx context.Context, userID uuid.UUID) (*UserRiskProfile, error)
	UpdateUserRiskScore(ctx context.Context, userID uuid.UUID, newScore int) error

	// History and velocity counts
	CountRejectedCreatorsByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountCreatorsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountApprovedReviewsByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountReviewsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountApprovedReviewsForCreatorByUser(ctx context.Context, userID, creatorID, excludeReviewID uuid.UUID) (int, error)
	GetRecentApprovedReviewContents(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)

	// Review loading and decision application
	GetReviewByID(ctx context.Context, reviewID uuid.UUID) (*Review, error)
	ApplyReviewDecision(ctx context.Context, decision *ReviewDecision) error
}
