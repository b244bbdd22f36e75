package fraud

import (
	"time"

	"github.com/google/uuid"
)

// CreatorStatus represents the lifecycle state of a creator profile
type CreatorStatus string

const (
	CreatorStatusPending  CreatorStatus = "pending"
	CreatorStatusActive   CreatorStatus = "active"
	CreatorStatusRejected CreatorStatus = "rejected"
	// CreatorStatusMerged marks a profile superseded by an admin merge. Merged
	// creators still count as duplicates: their names and links remain taken.
	CreatorStatusMerged CreatorStatus = "merged"
)

// ReviewStatus represents the moderation state of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// LedgerStatus represents the state of a wallet transaction
type LedgerStatus string

const (
	LedgerStatusPending  LedgerStatus = "pending"
	LedgerStatusApproved LedgerStatus = "approved"
	LedgerStatusRejected LedgerStatus = "rejected"
)

// Wallet transaction reference constants for review rewards
const (
	ReferenceTypeReview         = "review"
	TransactionTypeReviewReward = "review_reward"
)

// Rating bounds for reviews
const (
	MinRating = 1
	MaxRating = 5
)

// Creator is a public creator profile as seen by the duplicate scan
type Creator struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	Slug   string        `json:"slug"`
	Status CreatorStatus `json:"status"`
}

// PlatformLink is a social/content platform link attached to a creator
type PlatformLink struct {
	ID        uuid.UUID `json:"id"`
	CreatorID uuid.UUID `json:"creator_id"`
	Platform  string    `json:"platform"`
	Username  string    `json:"username"`
	URL       string    `json:"url"`
}

// PlatformLinkInput is a proposed link on a creator submission
type PlatformLinkInput struct {
	Platform string `json:"platform" binding:"required"`
	Username string `json:"username" binding:"required"`
	URL      string `json:"url" binding:"required,url"`
}

// CreatorSubmission is the input for a creator fraud evaluation
type CreatorSubmission struct {
	CreatorName   string              `json:"creator_name" validate:"required,min=2,max=100"`
	PlatformLinks []PlatformLinkInput `json:"platform_links" validate:"required,min=1,dive"`
	UserID        uuid.UUID           `json:"user_id" validate:"required"`
}

// Review is the full review record loaded for evaluation
type Review struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	CreatorID uuid.UUID    `json:"creator_id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Rating    int          `json:"rating"`
	Platform  string       `json:"platform"`
	Pros      []string     `json:"pros"`
	Cons      []string     `json:"cons"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// UserRiskProfile is the per-user fraud state read and incremented by the
// evaluators. RiskScore stays in [0,100] and never decreases here.
type UserRiskProfile struct {
	UserID           uuid.UUID `json:"user_id"`
	RiskScore        int       `json:"risk_score"`
	IsBanned         bool      `json:"is_banned"`
	PendingBalance   float64   `json:"pending_balance"`
	AvailableBalance float64   `json:"available_balance"`
}

// SimilarityMatch records an existing creator whose name resembles a candidate
type SimilarityMatch struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	SimilarityScore float64   `json:"similarity_score"`
}

// FraudVerdict is the outcome of a single fraud evaluation
type FraudVerdict struct {
	RiskScore         int               `json:"risk_score"`
	Flags             []string          `json:"flags"`
	Passed            bool              `json:"passed"`
	AutoApprove       bool              `json:"auto_approve"`
	ShouldBlock       bool              `json:"should_block"`
	NeedsManualReview bool              `json:"needs_manual_review"`
	SimilarCreators   []SimilarityMatch `json:"similar_creators,omitempty"`
	DuplicateLinks    []string          `json:"duplicate_links,omitempty"`

	seen map[string]bool
}

// addRisk adds points and logs the flag, deduplicating so each rule family
// appears at most once even when it fires on several records.
func (v *FraudVerdict) addRisk(points int, flag string) {
	v.RiskScore += points
	if v.seen == nil {
		v.seen = make(map[string]bool)
	}
	if !v.seen[flag] {
		v.seen[flag] = true
		v.Flags = append(v.Flags, flag)
	}
}

// Flag tags emitted by the creator evaluator
const (
	FlagNearIdenticalName    = "near_identical_name"
	FlagVerySimilarName      = "very_similar_name"
	FlagSimilarName          = "similar_name"
	FlagDuplicateURL         = "duplicate_url"
	FlagDuplicateUsername    = "duplicate_normalized_username"
	FlagBannedUser           = "banned_user"
	FlagHighRiskUser         = "high_risk_user"
	FlagMediumRiskUser       = "medium_risk_user"
	FlagManyRejectedCreators = "many_rejected_creators"
	FlagTooManyRecentCreator = "too_many_recent_creators"
	FlagSuspiciousActivity   = "suspicious_activity"
)

// Flag tags emitted by the review evaluator
const (
	FlagCreatorAlreadyReviewed = "creator_already_reviewed"
	FlagContentTooShort        = "content_too_short"
	FlagContentShort           = "content_short"
	FlagTitleTooShort          = "title_too_short"
	FlagExtremeVelocity        = "extreme_velocity"
	FlagTooManyRecentReviews   = "too_many_recent_reviews"
	FlagFrequentReviews        = "frequent_reviews"
	FlagNewUserExtremeRating   = "new_user_extreme_rating"
	FlagGenericPros            = "generic_pros"
	FlagGenericCons            = "generic_cons"
	FlagUnnaturalLanguage      = "unnatural_language"
	FlagSimilarLength          = "suspiciously_similar_length"
)
