package eventbus

import "github.com/google/uuid"

// Subjects used across services
const (
	SubjectReviewSubmitted = "reviews.submitted"
	SubjectReviewModerated = "reviews.moderated"
)

// ReviewSubmittedData is emitted when a user submits a new review
type ReviewSubmittedData struct {
	ReviewID  uuid.UUID `json:"review_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatorID uuid.UUID `json:"creator_id"`
}

// ReviewModeratedData is emitted after a fraud evaluation reaches a decision
type ReviewModeratedData struct {
	ReviewID     uuid.UUID `json:"review_id"`
	UserID       uuid.UUID `json:"user_id"`
	Status       string    `json:"status"`
	RiskScore    int       `json:"risk_score"`
	Flags        []string  `json:"flags"`
	AutoApproved bool      `json:"auto_approved"`
}
