// internal/service/ad/sweeps.go
package ad

import (
	"context"
	"fmt"
	"time"

	"motormart-service/internal/domain/notification"

	"go.uber.org/zap"
)

// ExpiryMailer sends the expiry warning email.
type ExpiryMailer interface {
	SendAdExpiryWarning(to, name, adTitle string, expiry time.Time)
}

const expiryWarningWindow = 3 * 24 * time.Hour

// ExpireDue moves active ads whose expiry date passed before now to EXPIRED.
func (s *AdService) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.repo.ExpireBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire ads: %w", err)
	}
	if expired > 0 {
		s.logger.Info("ads expired", zap.Int64("count", expired))
	}
	return expired, nil
}

// WarnExpiring notifies owners of ads expiring within three days, once per ad.
func (s *AdService) WarnExpiring(ctx context.Context, now time.Time, mailer ExpiryMailer) (int, error) {
	ads, err := s.repo.ListExpiringUnwarned(ctx, now, now.Add(expiryWarningWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring ads: %w", err)
	}

	warned := 0
	for _, a := range ads {
		s.notifier.Notify(ctx, a.UserID, notification.TypeAd,
			"Ad expiring soon",
			fmt.Sprintf("Your ad %q expires on %s. Renew it to keep it listed.", a.Title, a.ExpiryDate.Format("2006-01-02")),
			map[string]interface{}{"ad_id": a.ID, "expiry_date": a.ExpiryDate})

		if mailer != nil && a.Email != nil && *a.Email != "" {
			mailer.SendAdExpiryWarning(*a.Email, a.FirstName, a.Title, a.ExpiryDate)
		}

		if err := s.repo.MarkExpiryWarned(ctx, a.ID); err != nil {
			s.logger.Warn("failed to mark expiry warned", zap.Int64("ad_id", a.ID), zap.Error(err))
			continue
		}
		warned++
	}

	if warned > 0 {
		s.logger.Info("ad expiry warnings sent", zap.Int("count", warned))
	}
	return warned, nil
}
