package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/stockval-backend/internal/domain"
)

// usageCacheTTL bounds how stale the display-only usage count may get
const usageCacheTTL = 5 * time.Minute

// easternTZ pins the quota day boundary to US/Eastern midnight, matching
// market hours rather than UTC or server-local time
var easternTZ = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("failed to load US/Eastern timezone: %v", err))
	}
	return loc
}

// startOfTradingDay returns US/Eastern midnight of the day containing t
func startOfTradingDay(t time.Time) time.Time {
	local := t.In(easternTZ)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, easternTZ)
}

// Service enforces the per-user daily scan quota
type Service struct {
	Repo  domain.QuotaRepository
	Cache domain.Cache

	log zerolog.Logger
	now func() time.Time
}

// NewService creates a new quota Service instance
func NewService(repo domain.QuotaRepository, cache domain.Cache, log zerolog.Logger) *Service {
	return &Service{
		Repo:  repo,
		Cache: cache,
		log:   log.With().Str("component", "quota").Logger(),
		now:   time.Now,
	}
}

// CheckAndRecordScan atomically checks the user's remaining quota for the
// current US/Eastern day and records the scan if allowed.
//
// The limit check and the usage increment both happen inside the
// repository's row lock: concurrent requests for the same user serialize,
// so two requests can never both observe "under limit" and both proceed.
// The authoritative count is re-queried under the lock on every call; the
// cached display count is never consulted here.
//
// A denied scan is a normal outcome, returned as (false, nil, message, nil).
// The error return is reserved for infrastructure failures.
func (s *Service) CheckAndRecordScan(ctx context.Context, userID string, scanType domain.ScanType, ticker string) (bool, *domain.ScanRecord, string, error) {
	record := &domain.ScanRecord{
		ID:        uuid.New(),
		UserID:    userID,
		ScanType:  scanType,
		Ticker:    ticker,
		CreatedAt: s.now(),
	}
	if err := record.Validate(); err != nil {
		return false, nil, "", err
	}

	allowed := false
	message := ""

	err := s.Repo.WithLock(ctx, userID, func(tx domain.QuotaTx) error {
		limit := tx.DailyLimit()

		used, err := tx.CountScansSince(ctx, startOfTradingDay(record.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to count today's scans: %w", err)
		}

		if used >= limit {
			message = fmt.Sprintf("daily scan limit reached (%d of %d used)", used, limit)
			return nil
		}

		if err := tx.RecordScan(ctx, record); err != nil {
			return fmt.Errorf("failed to record scan: %w", err)
		}
		allowed = true
		return nil
	})
	if err != nil {
		return false, nil, "", err
	}

	if !allowed {
		s.log.Info().Str("user_id", userID).Str("scan_type", string(scanType)).Msg("scan denied by quota")
		return false, nil, message, nil
	}

	// The display count just changed; drop the cached value
	s.Cache.Delete(usageCacheKey(userID))

	return true, record, "", nil
}

// UsageToday returns the user's scan count for the current US/Eastern
// day. The value is cached for a few minutes and is for display only:
// the atomic check path never reads it.
func (s *Service) UsageToday(ctx context.Context, userID string) (int, error) {
	key := usageCacheKey(userID)
	if cached, ok := s.Cache.Get(key); ok {
		if count, err := strconv.Atoi(cached); err == nil {
			return count, nil
		}
	}

	count, err := s.Repo.CountScansSince(ctx, userID, startOfTradingDay(s.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to count today's scans: %w", err)
	}

	s.Cache.Set(key, strconv.Itoa(count), usageCacheTTL)
	return count, nil
}

func usageCacheKey(userID string) string {
	return "scan_usage:" + userID
}
