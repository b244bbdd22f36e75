package fraud

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/richxcame/creator-reviews/pkg/common"
	"github.com/richxcame/creator-reviews/pkg/logger"
	"go.uber.org/zap"
)

// Review evaluator scoring constants. Reviews move money, so the pass band is
// tighter than for creators and risk increments use the steeper /5 divisor.
const (
	reviewPassThreshold     = 30
	reviewAutoApproveMax    = 15
	reviewRiskDivisor       = 5
	autoApproveMinReviews   = 2
	autoApproveRiskScoreMax = 10

	pointsDuplicateReview   = 50
	pointsContentTooShort   = 20
	pointsContentShort      = 10
	pointsTitleTooShort     = 15
	pointsExtremeVelocity   = 60
	pointsHighVelocity      = 40
	pointsElevatedVelocity  = 15
	pointsNewUserExtreme    = 10
	pointsGenericList       = 15
	pointsUnnaturalLanguage = 10
	pointsSimilarLength     = 20

	contentTooShortMax = 30
	contentShortMax    = 50
	titleTooShortMax   = 5

	velocityExtremeMin  = 10
	velocityHighMin     = 5
	velocityElevatedMin = 3

	genericListMin      = 3
	genericItemMaxLen   = 10
	genericItemMinCount = 2

	unnaturalAvgWordLen = 12

	lengthFingerprintMinReviews = 3
	lengthFingerprintWindow     = 10
	lengthFingerprintSample     = 10
)

// ReviewService evaluates pending reviews for fraud and applies terminal
// decisions (status, reward ledger entry, balances) through the ledger updater.
type ReviewService struct {
	repo           FraudRepository
	ledger         *LedgerUpdater
	velocityWindow time.Duration
}

// NewReviewService creates a review fraud evaluator
func NewReviewService(repo FraudRepository, ledger *LedgerUpdater, velocityWindow time.Duration) *ReviewService {
	if velocityWindow <= 0 {
		velocityWindow = 24 * time.Hour
	}
	return &ReviewService{repo: repo, ledger: ledger, velocityWindow: velocityWindow}
}

// EvaluateReviewSubmission loads the review and scores it. A missing review is
// fatal; every other lookup failure degrades to "no evidence". The returned
// verdict reflects the decision that was applied.
func (s *ReviewService) EvaluateReviewSubmission(ctx context.Context, reviewID uuid.UUID) (*FraudVerdict, error) {
	reqLogger := logger.WithContext(ctx)

	review, err := s.repo.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return nil, common.NewNotFoundError("review not found", err)
		}
		return nil, common.NewInternalError("failed to load review", err)
	}

	profile := s.loadProfile(ctx, review.UserID, reqLogger)

	// 1. Banned users short-circuit: no content check can redeem them.
	if profile.IsBanned {
		verdict := &FraudVerdict{RiskScore: 100, Flags: []string{FlagBannedUser}}
		verdict.seen = map[string]bool{FlagBannedUser: true}
		return s.finalize(ctx, review, profile, verdict, 0, reqLogger)
	}

	verdict := &FraudVerdict{Flags: []string{}}

	// 2. One approved review per creator per user.
	if existing, err := s.repo.CountApprovedReviewsForCreatorByUser(ctx, review.UserID, review.CreatorID, review.ID); err != nil {
		reqLogger.Warn("review fraud: duplicate-review count unavailable", zap.Error(err))
	} else if existing > 0 {
		verdict.addRisk(pointsDuplicateReview, FlagCreatorAlreadyReviewed)
	}

	// 3. Submitter's accumulated risk.
	if profile.RiskScore > highRiskScoreMin {
		verdict.addRisk(pointsHighRiskUser, FlagHighRiskUser)
	} else if profile.RiskScore > mediumRiskScoreMin {
		verdict.addRisk(pointsMediumRiskUser, FlagMediumRiskUser)
	}

	// 4–5. Content and title length, counted in runes so accented text is
	// not inflated by its byte encoding.
	contentLen := utf8.RuneCountInString(review.Content)
	if contentLen < contentTooShortMax {
		verdict.addRisk(pointsContentTooShort, FlagContentTooShort)
	} else if contentLen < contentShortMax {
		verdict.addRisk(pointsContentShort, FlagContentShort)
	}
	if utf8.RuneCountInString(review.Title) < titleTooShortMax {
		verdict.addRisk(pointsTitleTooShort, FlagTitleTooShort)
	}

	// 6. Content rule families (spam, low-quality, solicitation,
	// fake-positive, copy-paste), first match wins inside each family.
	applyContentRules(review, verdict)

	// 7. Velocity in the trailing window, excluding this submission.
	s.checkVelocity(ctx, review, verdict, reqLogger)

	approvedReviews, err := s.repo.CountApprovedReviewsByUser(ctx, review.UserID)
	if err != nil {
		reqLogger.Warn("review fraud: approved-review count unavailable", zap.Error(err))
		approvedReviews = 0
	}

	// 8. Brand-new account going straight to an extreme rating.
	if approvedReviews == 0 && (review.Rating == MaxRating || review.Rating == MinRating) {
		verdict.addRisk(pointsNewUserExtreme, FlagNewUserExtremeRating)
	}

	// 9. One-sided reviews padded with throwaway list items.
	if isGenericList(review.Pros, review.Cons, review.Rating == MaxRating) {
		verdict.addRisk(pointsGenericList, FlagGenericPros)
	}
	if isGenericList(review.Cons, review.Pros, review.Rating == MinRating) {
		verdict.addRisk(pointsGenericList, FlagGenericCons)
	}

	// 10. Machine-ish prose: implausible average word length.
	if averageWordLength(review.Content) > unnaturalAvgWordLen {
		verdict.addRisk(pointsUnnaturalLanguage, FlagUnnaturalLanguage)
	}

	// 11. Template reuse: content length hugging the user's historic average.
	s.checkLengthFingerprint(ctx, review, verdict, reqLogger)

	// 12. Sentiment direction disagreeing with the rating.
	if sentimentMismatch(review) {
		verdict.addRisk(pointsSentimentMismatch, FlagSentimentMismatch)
	}

	return s.finalize(ctx, review, profile, verdict, approvedReviews, reqLogger)
}

// finalize computes the decision booleans, persists the risk increment and
// applies the terminal status through the ledger updater.
func (s *ReviewService) finalize(ctx context.Context, review *Review, profile *UserRiskProfile, verdict *FraudVerdict, approvedReviews int, reqLogger *zap.Logger) (*FraudVerdict, error) {
	verdict.Passed = verdict.RiskScore < reviewPassThreshold
	verdict.AutoApprove = verdict.RiskScore < reviewAutoApproveMax &&
		approvedReviews >= autoApproveMinReviews &&
		profile.RiskScore < autoApproveRiskScoreMax
	verdict.NeedsManualReview = verdict.Passed && !verdict.AutoApprove

	if verdict.RiskScore >= reviewPassThreshold {
		newScore := clampRiskScore(profile.RiskScore + verdict.RiskScore/reviewRiskDivisor)
		if err := s.repo.UpdateUserRiskScore(ctx, review.UserID, newScore); err != nil {
			reqLogger.Error("review fraud: failed to persist user risk score",
				zap.String("user_id", review.UserID.String()),
				zap.Int("new_score", newScore),
				zap.Error(err),
			)
		}
	}

	switch {
	case verdict.AutoApprove:
		if err := s.ledger.ApproveReview(ctx, review); err != nil {
			return nil, err
		}
	case !verdict.Passed:
		if err := s.ledger.RejectReview(ctx, review); err != nil {
			return nil, err
		}
	default:
		// Passed but not trusted enough to skip humans: stays pending.
	}

	reqLogger.Info("review fraud check completed",
		zap.String("review_id", review.ID.String()),
		zap.String("user_id", review.UserID.String()),
		zap.Int("risk_score", verdict.RiskScore),
		zap.Bool("passed", verdict.Passed),
		zap.Bool("auto_approve", verdict.AutoApprove),
		zap.Strings("flags", verdict.Flags),
	)
	recordVerdict("review", verdict)

	return verdict, nil
}

func (s *ReviewService) checkVelocity(ctx context.Context, review *Review, verdict *FraudVerdict, reqLogger *zap.Logger) {
	since := time.Now().Add(-s.velocityWindow)
	recent, err := s.repo.CountReviewsByUserSince(ctx, review.UserID, since)
	if err != nil {
		reqLogger.Warn("review fraud: velocity count unavailable", zap.Error(err))
		return
	}

	// The count includes the review being evaluated.
	if recent > 0 {
		recent--
	}

	switch {
	case recent >= velocityExtremeMin:
		verdict.addRisk(pointsExtremeVelocity, FlagExtremeVelocity)
	case recent >= velocityHighMin:
		verdict.addRisk(pointsHighVelocity, FlagTooManyRecentReviews)
	case recent >= velocityElevatedMin:
		verdict.addRisk(pointsElevatedVelocity, FlagFrequentReviews)
	}
}

func (s *ReviewService) checkLengthFingerprint(ctx context.Context, review *Review, verdict *FraudVerdict, reqLogger *zap.Logger) {
	contents, err := s.repo.GetRecentApprovedReviewContents(ctx, review.UserID, lengthFingerprintSample)
	if err != nil {
		reqLogger.Warn("review fraud: review history unavailable", zap.Error(err))
		return
	}
	if len(contents) < lengthFingerprintMinReviews {
		return
	}

	total := 0
	for _, content := range contents {
		total += utf8.RuneCountInString(content)
	}
	average := total / len(contents)

	diff := utf8.RuneCountInString(review.Content) - average
	if diff < 0 {
		diff = -diff
	}
	if diff < lengthFingerprintWindow {
		verdict.addRisk(pointsSimilarLength, FlagSimilarLength)
	}
}

func (s *ReviewService) loadProfile(ctx context.Context, userID uuid.UUID, reqLogger *zap.Logger) *UserRiskProfile {
	profile, err := s.repo.GetUserRiskProfile(ctx, userID)
	if err != nil || profile == nil {
		if err != nil {
			reqLogger.Warn("review fraud: risk profile unavailable, assuming clean user",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		return &UserRiskProfile{UserID: userID}
	}
	return profile
}

// isGenericList reports whether a one-sided review pads its dominant list
// with throwaway items: at least three entries on one side, none on the
// other, the matching extreme rating, and two or more entries under ten
// characters.
func isGenericList(dominant, opposite []string, extremeRating bool) bool {
	if !extremeRating || len(dominant) < genericListMin || len(opposite) != 0 {
		return false
	}

	short := 0
	for _, item := range dominant {
		if utf8.RuneCountInString(item) < genericItemMaxLen {
			short++
		}
	}
	return short >= genericItemMinCount
}

// averageWordLength divides the non-whitespace rune count of the content by
// its word count.
func averageWordLength(content string) float64 {
	words := strings.Fields(content)
	if len(words) == 0 {
		return 0
	}

	compact := 0
	for _, w := range words {
		compact += utf8.RuneCountInString(w)
	}
	return float64(compact) / float64(len(words))
}
