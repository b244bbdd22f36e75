package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFraudRepository struct {
	mock.Mock
}

func (m *mockFraudRepository) FindCreatorsExcludingStatus(ctx context.Context, exclude CreatorStatus) ([]Creator, error) {
	args := m.Called(ctx, exclude)
	creators, _ := args.Get(0).([]Creator)
	return creators, args.Error(1)
}

func (m *mockFraudRepository) FindPlatformLinksByURL(ctx context.Context, url string, exclude CreatorStatus) ([]PlatformLink, error) {
	args := m.Called(ctx, url, exclude)
	links, _ := args.Get(0).([]PlatformLink)
	return links, args.Error(1)
}

func (m *mockFraudRepository) FindPlatformLinksByPlatform(ctx context.Context, platform string, exclude CreatorStatus) ([]PlatformLink, error) {
	args := m.Called(ctx, platform, exclude)
	links, _ := args.Get(0).([]PlatformLink)
	return links, args.Error(1)
}

func (m *mockFraudRepository) GetUserRiskProfile(ctx context.Context, userID uuid.UUID) (*UserRiskProfile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*UserRiskProfile)
	return profile, args.Error(1)
}

func (m *mockFraudRepository) UpdateUserRiskScore(ctx context.Context, userID uuid.UUID, newScore int) error {
	args := m.Called(ctx, userID, newScore)
	return args.Error(0)
}

func (m *mockFraudRepository) CountRejectedCreatorsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockFraudRepository) CountCreatorsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockFraudRepository) CountApprovedReviewsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockFraudRepository) CountReviewsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockFraudRepository) CountApprovedReviewsForCreatorByUser(ctx context.Context, userID, creatorID, excludeReviewID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, creatorID, excludeReviewID)
	return args.Int(0), args.Error(1)
}

func (m *mockFraudRepository) GetRecentApprovedReviewContents(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	args := m.Called(ctx, userID, limit)
	contents, _ := args.Get(0).([]string)
	return contents, args.Error(1)
}

func (m *mockFraudRepository) GetReviewByID(ctx context.Context, reviewID uuid.UUID) (*Review, error) {
	args := m.Called(ctx, reviewID)
	review, _ := args.Get(0).(*Review)
	return review, args.Error(1)
}

func (m *mockFraudRepository) ApplyReviewDecision(ctx context.Context, decision *ReviewDecision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

// creatorLookupFixture is the repository state a creator evaluation reads.
// Zero value means a clean first-time submitter with no colliding creators.
type creatorLookupFixture struct {
	creators         []Creator
	linksByURL       []PlatformLink
	linksByPlatform  []PlatformLink
	profile          *UserRiskProfile
	rejectedCreators int
	recentCreators   int
}

func stubCreatorLookups(repo *mockFraudRepository, submission *CreatorSubmission, fx creatorLookupFixture) {
	repo.On("FindCreatorsExcludingStatus", mock.Anything, CreatorStatusRejected).Return(fx.creators, nil)
	for _, link := range submission.PlatformLinks {
		repo.On("FindPlatformLinksByURL", mock.Anything, link.URL, CreatorStatusRejected).Return(fx.linksByURL, nil)
		repo.On("FindPlatformLinksByPlatform", mock.Anything, link.Platform, CreatorStatusRejected).Return(fx.linksByPlatform, nil)
	}
	profile := fx.profile
	if profile == nil {
		profile = &UserRiskProfile{UserID: submission.UserID}
	}
	repo.On("GetUserRiskProfile", mock.Anything, submission.UserID).Return(profile, nil)
	repo.On("CountRejectedCreatorsByUser", mock.Anything, submission.UserID).Return(fx.rejectedCreators, nil)
	repo.On("CountCreatorsByUserSince", mock.Anything, submission.UserID, mock.AnythingOfType("time.Time")).Return(fx.recentCreators, nil)
}

func newCreatorSubmission(name string) *CreatorSubmission {
	return &CreatorSubmission{
		CreatorName: name,
		PlatformLinks: []PlatformLinkInput{
			{Platform: "instagram", Username: "some.handle", URL: "https://instagram.com/some.handle"},
		},
		UserID: uuid.New(),
	}
}

func TestEvaluateCreatorSubmissionCleanPasses(t *testing.T) {
	repo := new(mockFraudRepository)
	submission := newCreatorSubmission("Luna Marchetti")
	stubCreatorLookups(repo, submission, creatorLookupFixture{})

	service := NewCreatorService(repo, time.Hour)
	verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

	require.NoError(t, err)
	assert.Zero(t, verdict.RiskScore)
	assert.True(t, verdict.Passed)
	assert.False(t, verdict.ShouldBlock)
	assert.False(t, verdict.NeedsManualReview)
	assert.Empty(t, verdict.Flags)
	// Below the persistence threshold: no risk score write.
	repo.AssertNotCalled(t, "UpdateUserRiskScore", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateCreatorSubmissionVerySimilarName(t *testing.T) {
	repo := new(mockFraudRepository)
	submission := newCreatorSubmission("Alessia Rose")
	existing := Creator{ID: uuid.New(), Name: "Alessia Ros", Slug: "alessia-ros", Status: CreatorStatusActive}
	stubCreatorLookups(repo, submission, creatorLookupFixture{creators: []Creator{existing}})

	service := NewCreatorService(repo, time.Hour)
	verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

	require.NoError(t, err)
	// One edit over 11 normalized characters: 0.909, the "very similar" band.
	assert.Equal(t, pointsVerySimilarName, verdict.RiskScore)
	assert.Equal(t, []string{FlagVerySimilarName}, verdict.Flags)
	require.Len(t, verdict.SimilarCreators, 1)
	assert.Equal(t, existing.ID, verdict.SimilarCreators[0].ID)
	assert.GreaterOrEqual(t, verdict.SimilarCreators[0].SimilarityScore, similarityVeryClose)
	assert.True(t, verdict.Passed)
	repo.AssertNotCalled(t, "UpdateUserRiskScore", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateCreatorSubmissionNearIdenticalNameAndDuplicateLinksBlock(t *testing.T) {
	repo := new(mockFraudRepository)
	submission := newCreatorSubmission("Bella Rose")
	submission.PlatformLinks = []PlatformLinkInput{
		{Platform: "onlyfans", Username: "Bella_Rose", URL: "https://onlyfans.com/bellarose"},
	}
	stubCreatorLookups(repo, submission, creatorLookupFixture{
		// Merged creators keep their names and links reserved.
		creators: []Creator{
			{ID: uuid.New(), Name: "bella.rose", Slug: "bella-rose", Status: CreatorStatusMerged},
		},
		linksByURL: []PlatformLink{
			{ID: uuid.New(), CreatorID: uuid.New(), Platform: "onlyfans", Username: "other", URL: "https://onlyfans.com/bellarose"},
		},
		linksByPlatform: []PlatformLink{
			{ID: uuid.New(), CreatorID: uuid.New(), Platform: "onlyfans", Username: "bella-rose", URL: "https://onlyfans.com/other"},
		},
	})
	// 50 (name) + 60 (url) + 50 (username) = 160, persisted as 0 + 160/10.
	repo.On("UpdateUserRiskScore", mock.Anything, submission.UserID, 16).Return(nil).Once()

	service := NewCreatorService(repo, time.Hour)
	verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

	require.NoError(t, err)
	assert.Equal(t, 160, verdict.RiskScore)
	assert.False(t, verdict.Passed)
	assert.True(t, verdict.ShouldBlock)
	assert.False(t, verdict.NeedsManualReview)
	assert.Contains(t, verdict.Flags, FlagNearIdenticalName)
	assert.Contains(t, verdict.Flags, FlagDuplicateURL)
	assert.Contains(t, verdict.Flags, FlagDuplicateUsername)
	assert.Len(t, verdict.DuplicateLinks, 2)
	repo.AssertExpectations(t)
}

func TestEvaluateCreatorSubmissionBannedUserClampsPersistedScore(t *testing.T) {
	repo := new(mockFraudRepository)
	submission := newCreatorSubmission("Nova Lane")
	stubCreatorLookups(repo, submission, creatorLookupFixture{
		profile: &UserRiskProfile{UserID: submission.UserID, RiskScore: 95, IsBanned: true},
	})
	// 95 + 100/10 caps at 100.
	repo.On("UpdateUserRiskScore", mock.Anything, submission.UserID, 100).Return(nil).Once()

	service := NewCreatorService(repo, time.Hour)
	verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

	require.NoError(t, err)
	assert.Equal(t, pointsBannedUser, verdict.RiskScore)
	assert.True(t, verdict.ShouldBlock)
	assert.Equal(t, []string{FlagBannedUser}, verdict.Flags)
	repo.AssertExpectations(t)
}

func TestEvaluateCreatorSubmissionRiskProfileBands(t *testing.T) {
	tests := []struct {
		name          string
		profileScore  int
		expectedScore int
		expectedFlag  string
	}{
		{"high risk", 60, pointsHighRiskUser, FlagHighRiskUser},
		{"medium risk", 30, pointsMediumRiskUser, FlagMediumRiskUser},
		{"low risk", 25, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockFraudRepository)
			submission := newCreatorSubmission("Gaia Fiore")
			stubCreatorLookups(repo, submission, creatorLookupFixture{
				profile: &UserRiskProfile{UserID: submission.UserID, RiskScore: tt.profileScore},
			})

			service := NewCreatorService(repo, time.Hour)
			verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedScore, verdict.RiskScore)
			if tt.expectedFlag != "" {
				assert.Equal(t, []string{tt.expectedFlag}, verdict.Flags)
			} else {
				assert.Empty(t, verdict.Flags)
			}
		})
	}
}

func TestEvaluateCreatorSubmissionVelocityBands(t *testing.T) {
	tests := []struct {
		name          string
		recent        int
		expectedScore int
		expectedFlag  string
	}{
		{"burst", 5, pointsCreatorBurst, FlagTooManyRecentCreator},
		{"elevated", 3, pointsCreatorElevated, FlagSuspiciousActivity},
		{"calm", 2, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockFraudRepository)
			submission := newCreatorSubmission("Mira Valli")
			stubCreatorLookups(repo, submission, creatorLookupFixture{recentCreators: tt.recent})
			// The burst band alone reaches the persistence threshold.
			repo.On("UpdateUserRiskScore", mock.Anything, submission.UserID, mock.AnythingOfType("int")).Return(nil).Maybe()

			service := NewCreatorService(repo, time.Hour)
			verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedScore, verdict.RiskScore)
			if tt.expectedFlag != "" {
				assert.Equal(t, []string{tt.expectedFlag}, verdict.Flags)
			} else {
				assert.Empty(t, verdict.Flags)
			}
		})
	}
}

func TestEvaluateCreatorSubmissionRejectionHistory(t *testing.T) {
	repo := new(mockFraudRepository)
	submission := newCreatorSubmission("Iris Bloom")
	stubCreatorLookups(repo, submission, creatorLookupFixture{rejectedCreators: 3})

	service := NewCreatorService(repo, time.Hour)
	verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

	require.NoError(t, err)
	assert.Equal(t, pointsManyRejected, verdict.RiskScore)
	assert.Equal(t, []string{FlagManyRejectedCreators}, verdict.Flags)
	assert.True(t, verdict.Passed)
}

func TestEvaluateCreatorSubmissionDegradesOnLookupFailures(t *testing.T) {
	repo := new(mockFraudRepository)
	submission := newCreatorSubmission("Vera Skye")
	lookupErr := errors.New("connection refused")
	repo.On("FindCreatorsExcludingStatus", mock.Anything, CreatorStatusRejected).Return(nil, lookupErr)
	repo.On("FindPlatformLinksByURL", mock.Anything, mock.Anything, CreatorStatusRejected).Return(nil, lookupErr)
	repo.On("FindPlatformLinksByPlatform", mock.Anything, mock.Anything, CreatorStatusRejected).Return(nil, lookupErr)
	repo.On("GetUserRiskProfile", mock.Anything, submission.UserID).Return(nil, lookupErr)
	repo.On("CountRejectedCreatorsByUser", mock.Anything, submission.UserID).Return(0, lookupErr)
	repo.On("CountCreatorsByUserSince", mock.Anything, submission.UserID, mock.AnythingOfType("time.Time")).Return(0, lookupErr)

	service := NewCreatorService(repo, time.Hour)
	verdict, err := service.EvaluateCreatorSubmission(context.Background(), submission)

	// Missing evidence never fails the evaluation; it scores as clean.
	require.NoError(t, err)
	assert.Zero(t, verdict.RiskScore)
	assert.True(t, verdict.Passed)
	repo.AssertNotCalled(t, "UpdateUserRiskScore", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateCreatorSubmissionRejectsMissingInput(t *testing.T) {
	service := NewCreatorService(new(mockFraudRepository), time.Hour)

	_, err := service.EvaluateCreatorSubmission(context.Background(), nil)
	assert.Error(t, err)

	_, err = service.EvaluateCreatorSubmission(context.Background(), &CreatorSubmission{})
	assert.Error(t, err)
}
