package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/creator-reviews/pkg/logger"
	"github.com/richxcame/creator-reviews/pkg/textmatch"
	"go.uber.org/zap"
)

// Creator evaluator scoring constants. Creators gate public visibility rather
// than money directly, so the pass band is wider than for reviews and risk
// increments use a /10 divisor instead of /5.
const (
	creatorPassThreshold   = 50
	creatorBlockThreshold  = 80
	creatorRiskPersistMin  = 40
	creatorRiskDivisor     = 10
	similarityMatchMin     = 0.80
	similarityVeryClose    = 0.85
	similarityNearIdentity = 0.95

	pointsNearIdenticalName = 50
	pointsVerySimilarName   = 30
	pointsSimilarName       = 15
	pointsDuplicateURL      = 60
	pointsDuplicateUsername = 50
	pointsBannedUser        = 100
	pointsHighRiskUser      = 30
	pointsMediumRiskUser    = 15
	pointsManyRejected      = 25
	pointsCreatorBurst      = 40
	pointsCreatorElevated   = 25

	highRiskScoreMin   = 50
	mediumRiskScoreMin = 25
	rejectedCreatorMin = 3
	creatorBurstMin    = 5
	creatorElevatedMin = 3
)

// CreatorService evaluates pending creator submissions for fraud. It never
// mutates creator status or wallet state; the caller acts on the verdict.
type CreatorService struct {
	repo           FraudRepository
	velocityWindow time.Duration
}

// NewCreatorService creates a creator fraud evaluator
func NewCreatorService(repo FraudRepository, velocityWindow time.Duration) *CreatorService {
	if velocityWindow <= 0 {
		velocityWindow = time.Hour
	}
	return &CreatorService{repo: repo, velocityWindow: velocityWindow}
}

// EvaluateCreatorSubmission scores a proposed creator profile. Every check is
// additive; lookups that fail degrade to "no evidence" so the evaluation
// always produces a verdict.
func (s *CreatorService) EvaluateCreatorSubmission(ctx context.Context, submission *CreatorSubmission) (*FraudVerdict, error) {
	if submission == nil || submission.CreatorName == "" {
		return nil, fmt.Errorf("creator submission is missing required fields")
	}

	verdict := &FraudVerdict{
		Flags:           []string{},
		SimilarCreators: []SimilarityMatch{},
		DuplicateLinks:  []string{},
	}
	reqLogger := logger.WithContext(ctx)

	// 1. Similar creator names among everything not rejected (merged profiles
	// keep their names reserved).
	s.checkSimilarNames(ctx, submission.CreatorName, verdict, reqLogger)

	// 2. Duplicate platform links, by exact URL and by normalized username.
	s.checkDuplicateLinks(ctx, submission.PlatformLinks, verdict, reqLogger)

	// 3. Submitter's own risk history.
	profile := s.loadProfile(ctx, submission, reqLogger)
	if profile.IsBanned {
		verdict.addRisk(pointsBannedUser, FlagBannedUser)
	} else if profile.RiskScore > highRiskScoreMin {
		verdict.addRisk(pointsHighRiskUser, FlagHighRiskUser)
	} else if profile.RiskScore > mediumRiskScoreMin {
		verdict.addRisk(pointsMediumRiskUser, FlagMediumRiskUser)
	}

	// 4. Rejection history.
	if rejected, err := s.repo.CountRejectedCreatorsByUser(ctx, submission.UserID); err != nil {
		reqLogger.Warn("creator fraud: rejected-creator count unavailable", zap.Error(err))
	} else if rejected >= rejectedCreatorMin {
		verdict.addRisk(pointsManyRejected, FlagManyRejectedCreators)
	}

	// 5. Submission velocity in the trailing window; higher threshold wins.
	since := time.Now().Add(-s.velocityWindow)
	if recent, err := s.repo.CountCreatorsByUserSince(ctx, submission.UserID, since); err != nil {
		reqLogger.Warn("creator fraud: velocity count unavailable", zap.Error(err))
	} else if recent >= creatorBurstMin {
		verdict.addRisk(pointsCreatorBurst, FlagTooManyRecentCreator)
	} else if recent >= creatorElevatedMin {
		verdict.addRisk(pointsCreatorElevated, FlagSuspiciousActivity)
	}

	// 6. Decision bands.
	verdict.Passed = verdict.RiskScore < creatorPassThreshold
	verdict.ShouldBlock = verdict.RiskScore >= creatorBlockThreshold
	verdict.NeedsManualReview = verdict.RiskScore >= creatorPassThreshold && verdict.RiskScore < creatorBlockThreshold

	// 7. Persist the risk increment for suspicious submissions.
	if verdict.RiskScore >= creatorRiskPersistMin {
		newScore := clampRiskScore(profile.RiskScore + verdict.RiskScore/creatorRiskDivisor)
		if err := s.repo.UpdateUserRiskScore(ctx, submission.UserID, newScore); err != nil {
			reqLogger.Error("creator fraud: failed to persist user risk score",
				zap.String("user_id", submission.UserID.String()),
				zap.Int("new_score", newScore),
				zap.Error(err),
			)
		} else {
			reqLogger.Info("creator fraud: user risk score updated",
				zap.String("user_id", submission.UserID.String()),
				zap.Int("new_score", newScore),
			)
		}
	}

	reqLogger.Info("creator fraud check completed",
		zap.String("creator_name", submission.CreatorName),
		zap.String("user_id", submission.UserID.String()),
		zap.Int("risk_score", verdict.RiskScore),
		zap.Bool("passed", verdict.Passed),
		zap.Bool("should_block", verdict.ShouldBlock),
		zap.Strings("flags", verdict.Flags),
	)
	recordVerdict("creator", verdict)

	return verdict, nil
}

func (s *CreatorService) checkSimilarNames(ctx context.Context, name string, verdict *FraudVerdict, reqLogger *zap.Logger) {
	existing, err := s.repo.FindCreatorsExcludingStatus(ctx, CreatorStatusRejected)
	if err != nil {
		reqLogger.Warn("creator fraud: creator scan unavailable, skipping name check", zap.Error(err))
		return
	}

	for _, creator := range existing {
		similarity := textmatch.Similarity(name, creator.Name)
		if similarity < similarityMatchMin {
			continue
		}

		verdict.SimilarCreators = append(verdict.SimilarCreators, SimilarityMatch{
			ID:              creator.ID,
			Name:            creator.Name,
			Slug:            creator.Slug,
			SimilarityScore: similarity,
		})

		switch {
		case similarity >= similarityNearIdentity:
			verdict.addRisk(pointsNearIdenticalName, FlagNearIdenticalName)
		case similarity >= similarityVeryClose:
			verdict.addRisk(pointsVerySimilarName, FlagVerySimilarName)
		default:
			verdict.addRisk(pointsSimilarName, FlagSimilarName)
		}
	}
}

func (s *CreatorService) checkDuplicateLinks(ctx context.Context, links []PlatformLinkInput, verdict *FraudVerdict, reqLogger *zap.Logger) {
	for _, link := range links {
		// Exact URL collision with any non-rejected creator.
		if duplicates, err := s.repo.FindPlatformLinksByURL(ctx, link.URL, CreatorStatusRejected); err != nil {
			reqLogger.Warn("creator fraud: URL lookup unavailable", zap.String("url", link.URL), zap.Error(err))
		} else if len(duplicates) > 0 {
			verdict.DuplicateLinks = append(verdict.DuplicateLinks, fmt.Sprintf("URL: %s", link.URL))
			verdict.addRisk(pointsDuplicateURL, FlagDuplicateURL)
		}

		// Same platform, same username after normalization. Both checks can
		// fire for the same link.
		normalized := textmatch.Normalize(link.Username)
		if existingLinks, err := s.repo.FindPlatformLinksByPlatform(ctx, link.Platform, CreatorStatusRejected); err != nil {
			reqLogger.Warn("creator fraud: platform link lookup unavailable", zap.String("platform", link.Platform), zap.Error(err))
		} else {
			for _, existing := range existingLinks {
				if textmatch.Normalize(existing.Username) == normalized {
					verdict.DuplicateLinks = append(verdict.DuplicateLinks, fmt.Sprintf("%s: @%s", link.Platform, link.Username))
					verdict.addRisk(pointsDuplicateUsername, FlagDuplicateUsername)
					break
				}
			}
		}
	}
}

// loadProfile fetches the submitter's risk profile, degrading to a clean
// zero-value profile when the lookup fails.
func (s *CreatorService) loadProfile(ctx context.Context, submission *CreatorSubmission, reqLogger *zap.Logger) *UserRiskProfile {
	profile, err := s.repo.GetUserRiskProfile(ctx, submission.UserID)
	if err != nil || profile == nil {
		if err != nil {
			reqLogger.Warn("creator fraud: risk profile unavailable, assuming clean user",
				zap.String("user_id", submission.UserID.String()),
				zap.Error(err),
			)
		}
		return &UserRiskProfile{UserID: submission.UserID}
	}
	return profile
}

// clampRiskScore keeps a persisted risk score inside [0,100]
func clampRiskScore(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
