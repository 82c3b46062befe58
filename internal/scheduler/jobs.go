// internal/scheduler/jobs.go
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"motormart-service/internal/domain/notification"
	"motormart-service/internal/domain/pricing"
	adService "motormart-service/internal/service/ad"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type AdSweeper interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	WarnExpiring(ctx context.Context, now time.Time, mailer adService.ExpiryMailer) (int, error)
}

type BanSweeper interface {
	LiftExpiredBans(ctx context.Context, now time.Time) (int64, error)
}

type BoostSweeper interface {
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type SubscriberLister interface {
	ListActiveUserIDs(ctx context.Context, at time.Time) ([]int64, error)
}

type EntitlementReader interface {
	ForUser(ctx context.Context, userID int64) (*pricing.Entitlement, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, typ notification.NotificationType, title, message string, metadata map[string]interface{})
}

// lowQuotaThreshold triggers the ad-limit warning.
const lowQuotaThreshold = 1

// Jobs holds the work behind each scheduled job. Each method takes the
// cutoff from its clock so runs are reproducible in tests.
type Jobs struct {
	Ads          AdSweeper
	Bans         BanSweeper
	Boosts       BoostSweeper
	Subscribers  SubscriberLister
	Entitlements EntitlementReader
	Notifier     Notifier
	Mailer       adService.ExpiryMailer
	Redis        redis.Cmdable

	Logger *zap.Logger
	Now    func() time.Time
}

func (j *Jobs) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Jobs) ExpireAds(ctx context.Context) (int64, error) {
	return j.Ads.ExpireDue(ctx, j.now())
}

func (j *Jobs) LiftBans(ctx context.Context) (int64, error) {
	return j.Bans.LiftExpiredBans(ctx, j.now())
}

func (j *Jobs) ExpireBoosts(ctx context.Context) (int64, error) {
	return j.Boosts.ExpireEnded(ctx, j.now())
}

func (j *Jobs) WarnExpiringAds(ctx context.Context) (int64, error) {
	n, err := j.Ads.WarnExpiring(ctx, j.now(), j.Mailer)
	return int64(n), err
}

// WarnAdLimits notifies subscribers who have at most one posting left for
// any limited vehicle type, at most once per user per day.
func (j *Jobs) WarnAdLimits(ctx context.Context) (int64, error) {
	now := j.now()
	userIDs, err := j.Subscribers.ListActiveUserIDs(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscribers: %w", err)
	}

	var warned int64
	for _, userID := range userIDs {
		ent, err := j.Entitlements.ForUser(ctx, userID)
		if err != nil {
			j.Logger.Warn("failed to compute entitlement", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		low := lowQuotaTypes(ent)
		if len(low) == 0 {
			continue
		}

		first, err := j.claimDailyWarning(ctx, userID, now)
		if err != nil {
			j.Logger.Warn("failed to record ad limit warning", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		if !first {
			continue
		}

		j.Notifier.Notify(ctx, userID, notification.TypeSubscription,
			"Ad limit almost reached",
			fmt.Sprintf("You have little or no posting quota left for: %s.", strings.Join(low, ", ")),
			map[string]interface{}{"types": low})
		warned++
	}

	if warned > 0 {
		j.Logger.Info("ad limit warnings sent", zap.Int64("count", warned))
	}
	return warned, nil
}

func lowQuotaTypes(ent *pricing.Entitlement) []string {
	if ent == nil || !ent.HasPackage {
		return nil
	}
	var low []string
	for _, t := range ent.PerType {
		if !t.IsUnlimited && t.Remaining <= lowQuotaThreshold {
			low = append(low, t.VehicleTypeName)
		}
	}
	if len(ent.PerType) == 0 && ent.Global != nil && !ent.Global.IsUnlimited && ent.Global.Remaining <= lowQuotaThreshold {
		low = append(low, "all vehicle types")
	}
	return low
}

// claimDailyWarning reports whether this is the first warning for userID on now's date.
func (j *Jobs) claimDailyWarning(ctx context.Context, userID int64, now time.Time) (bool, error) {
	key := fmt.Sprintf("adlimit:warned:%d:%s", userID, now.Format("2006-01-02"))
	return j.Redis.SetNX(ctx, key, 1, 26*time.Hour).Result()
}
