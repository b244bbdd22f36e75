package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/creator-reviews/pkg/logger"
	"github.com/richxcame/creator-reviews/pkg/redis"
	"go.uber.org/zap"
)

// creatorScanCacheKey caches the full non-rejected creator list used by the
// duplicate-name scan. The scan runs on every creator submission and the list
// changes rarely, so a short TTL keeps it both cheap and fresh.
const (
	creatorScanCacheKey = "fraud:creators:nonrejected"
	creatorScanCacheTTL = 60 * time.Second
)

// Repository implements FraudRepository on PostgreSQL with an optional Redis
// cache in front of the creator scan.
type Repository struct {
	db    *pgxpool.Pool
	cache *redis.Client
}

// Ensure the concrete repository satisfies the evaluators' requirements.
var _ FraudRepository = (*Repository)(nil)

// NewRepository creates a new fraud repository. cache may be nil.
func NewRepository(db *pgxpool.Pool, cache *redis.Client) *Repository {
	return &Repository{db: db, cache: cache}
}

// FindCreatorsExcludingStatus returns every creator not in the given status.
// Merged creators are intentionally included: their names stay reserved.
func (r *Repository) FindCreatorsExcludingStatus(ctx context.Context, exclude CreatorStatus) ([]Creator, error) {
	if exclude == CreatorStatusRejected {
		if cached, ok := r.cachedCreators(ctx); ok {
			return cached, nil
		}
	}

	query := `
		SELECT id, name, slug, status
		FROM creators
		WHERE status <> $1
	`

	rows, err := r.db.Query(ctx, query, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creators := make([]Creator, 0)
	for rows.Next() {
		var creator Creator
		if err := rows.Scan(&creator.ID, &creator.Name, &creator.Slug, &creator.Status); err != nil {
			return nil, err
		}
		creators = append(creators, creator)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if exclude == CreatorStatusRejected {
		r.storeCreators(ctx, creators)
	}

	return creators, nil
}

func (r *Repository) cachedCreators(ctx context.Context) ([]Creator, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.GetString(ctx, creatorScanCacheKey)
	if err != nil {
		return nil, false
	}

	var creators []Creator
	if err := json.Unmarshal([]byte(raw), &creators); err != nil {
		logger.Warn("fraud repository: dropping malformed creator cache entry", zap.Error(err))
		_ = r.cache.Delete(ctx, creatorScanCacheKey)
		return nil, false
	}
	return creators, true
}

func (r *Repository) storeCreators(ctx context.Context, creators []Creator) {
	if r.cache == nil {
		return
	}

	raw, err := json.Marshal(creators)
	if err != nil {
		return
	}
	if err := r.cache.SetWithExpiration(ctx, creatorScanCacheKey, raw, creatorScanCacheTTL); err != nil {
		logger.Warn("fraud repository: failed to cache creator scan", zap.Error(err))
	}
}

// FindPlatformLinksByURL returns links with the exact URL whose creator is
// not in the excluded status.
func (r *Repository) FindPlatformLinksByURL(ctx context.Context, url string, exclude CreatorStatus) ([]PlatformLink, error) {
	query := `
		SELECT pl.id, pl.creator_id, pl.platform, pl.username, pl.url
		FROM platform_links pl
		JOIN creators c ON c.id = pl.creator_id
		WHERE pl.url = $1 AND c.status <> $2
	`
	return r.queryLinks(ctx, query, url, exclude)
}

// FindPlatformLinksByPlatform returns all links on a platform whose creator
// is not in the excluded status.
func (r *Repository) FindPlatformLinksByPlatform(ctx context.Context, platform string, exclude CreatorStatus) ([]PlatformLink, error) {
	query := `
		SELECT pl.id, pl.creator_id, pl.platform, pl.username, pl.url
		FROM platform_links pl
		JOIN creators c ON c.id = pl.creator_id
		WHERE pl.platform = $1 AND c.status <> $2
	`
	return r.queryLinks(ctx, query, platform, exclude)
}

func (r *Repository) queryLinks(ctx context.Context, query string, args ...interface{}) ([]PlatformLink, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]PlatformLink, 0)
	for rows.Next() {
		var link PlatformLink
		if err := rows.Scan(&link.ID, &link.CreatorID, &link.Platform, &link.Username, &link.URL); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// GetUserRiskProfile retrieves a user's risk profile, returning a clean
// zero-value profile when none exists yet.
func (r *Repository) GetUserRiskProfile(ctx context.Context, userID uuid.UUID) (*UserRiskProfile, error) {
	query := `
		SELECT user_id, risk_score, is_banned, pending_balance, available_balance
		FROM profiles
		WHERE user_id = $1
	`

	var profile UserRiskProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.RiskScore,
		&profile.IsBanned,
		&profile.PendingBalance,
		&profile.AvailableBalance,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &UserRiskProfile{UserID: userID}, nil
		}
		return nil, err
	}

	return &profile, nil
}

// UpdateUserRiskScore persists a user's new risk score
func (r *Repository) UpdateUserRiskScore(ctx context.Context, userID uuid.UUID, newScore int) error {
	query := `
		UPDATE profiles
		SET risk_score = $2, updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := r.db.Exec(ctx, query, userID, newScore)
	return err
}

// CountRejectedCreatorsByUser counts a user's rejected creator submissions
func (r *Repository) CountRejectedCreatorsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM creators
		WHERE added_by_user_id = $1 AND status = 'rejected'
	`
	return r.count(ctx, query, userID)
}

// CountCreatorsByUserSince counts a user's creator submissions after a cutoff
func (r *Repository) CountCreatorsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM creators
		WHERE added_by_user_id = $1 AND created_at >= $2
	`
	return r.count(ctx, query, userID, since)
}

// CountApprovedReviewsByUser counts a user's approved reviews
func (r *Repository) CountApprovedReviewsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reviews
		WHERE user_id = $1 AND status = 'approved'
	`
	return r.count(ctx, query, userID)
}

// CountReviewsByUserSince counts a user's reviews after a cutoff, regardless
// of status. Includes the review currently under evaluation.
func (r *Repository) CountReviewsByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reviews
		WHERE user_id = $1 AND created_at >= $2
	`
	return r.count(ctx, query, userID, since)
}

// CountApprovedReviewsForCreatorByUser counts the user's approved reviews for
// one creator, excluding the review under evaluation.
func (r *Repository) CountApprovedReviewsForCreatorByUser(ctx context.Context, userID, creatorID, excludeReviewID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reviews
		WHERE user_id = $1 AND creator_id = $2 AND status = 'approved' AND id <> $3
	`
	return r.count(ctx, query, userID, creatorID, excludeReviewID)
}

// GetRecentApprovedReviewContents returns the content of the user's most
// recent approved reviews, newest first.
func (r *Repository) GetRecentApprovedReviewContents(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	query := `
		SELECT content
		FROM reviews
		WHERE user_id = $1 AND status = 'approved'
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := make([]string, 0, limit)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

// GetReviewByID loads the full review record for evaluation
func (r *Repository) GetReviewByID(ctx context.Context, reviewID uuid.UUID) (*Review, error) {
	query := `
		SELECT id, user_id, creator_id, title, content, rating, platform,
		       pros, cons, status, created_at
		FROM reviews
		WHERE id = $1
	`

	var review Review
	err := r.db.QueryRow(ctx, query, reviewID).Scan(
		&review.ID,
		&review.UserID,
		&review.CreatorID,
		&review.Title,
		&review.Content,
		&review.Rating,
		&review.Platform,
		&review.Pros,
		&review.Cons,
		&review.Status,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	return &review, nil
}

// ApplyReviewDecision applies a terminal moderation outcome in a single
// transaction: review status, reward ledger entry, balance movement. The
// ledger update only touches entries still pending, so replaying the same
// decision cannot move money twice.
func (r *Repository) ApplyReviewDecision(ctx context.Context, decision *ReviewDecision) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin decision transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	statusQuery := `
		UPDATE reviews
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, statusQuery, decision.ReviewID, decision.Status); err != nil {
		return fmt.Errorf("update review status: %w", err)
	}

	ledgerStatus := LedgerStatusRejected
	if decision.Status == ReviewStatusApproved {
		ledgerStatus = LedgerStatusApproved
	}

	ledgerQuery := `
		UPDATE wallet_transactions
		SET status = $2, processed_at = NOW()
		WHERE reference_id = $1
		  AND reference_type = $3
		  AND transaction_type = $4
		  AND status = $5
	`
	tag, err := tx.Exec(ctx, ledgerQuery,
		decision.ReviewID,
		ledgerStatus,
		ReferenceTypeReview,
		TransactionTypeReviewReward,
		LedgerStatusPending,
	)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}

	// Move money only when the ledger entry actually transitioned; a replay
	// finds no pending entry and leaves balances alone.
	if tag.RowsAffected() > 0 {
		var balanceQuery string
		if decision.CreditAvailable {
			balanceQuery = `
				UPDATE profiles
				SET pending_balance = GREATEST(0, pending_balance - $2),
				    available_balance = available_balance + $2,
				    updated_at = NOW()
				WHERE user_id = $1
			`
		} else {
			balanceQuery = `
				UPDATE profiles
				SET pending_balance = GREATEST(0, pending_balance - $2),
				    updated_at = NOW()
				WHERE user_id = $1
			`
		}
		if _, err := tx.Exec(ctx, balanceQuery, decision.UserID, decision.RewardAmount); err != nil {
			return fmt.Errorf("adjust balances: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *Repository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
