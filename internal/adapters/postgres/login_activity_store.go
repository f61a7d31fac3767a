package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
	"gorm.io/gorm"
)

type loginActivityStore struct {
	db *gorm.DB
}

// Record appends the entry and trims anything older than the newest keep
// rows, so per-user history stays capped.
func (s *loginActivityStore) Record(ctx context.Context, activity domain.LoginActivity, keep int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := loginActivityModel{
			UID:         activity.UID,
			OccurredAt:  activity.At,
			Fingerprint: activity.Fingerprint,
			IPAddress:   activity.IPAddress,
			UserAgent:   activity.UserAgent,
			Status:      activity.Status,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if keep <= 0 {
			return nil
		}
		return tx.Exec(`
			DELETE FROM login_activity
			WHERE uid = ? AND id NOT IN (
				SELECT id FROM login_activity
				WHERE uid = ?
				ORDER BY occurred_at DESC
				LIMIT ?
			)`, activity.UID, activity.UID, keep).Error
	})
}

func (s *loginActivityStore) ListByUser(ctx context.Context, uid uuid.UUID, limit int) ([]domain.LoginActivity, error) {
	q := s.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("occurred_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []loginActivityModel
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	activities := make([]domain.LoginActivity, 0, len(recs))
	for _, rec := range recs {
		activities = append(activities, domain.LoginActivity{
			ID:          rec.ID,
			UID:         rec.UID,
			At:          rec.OccurredAt,
			Fingerprint: rec.Fingerprint,
			IPAddress:   rec.IPAddress,
			UserAgent:   rec.UserAgent,
			Status:      rec.Status,
		})
	}
	return activities, nil
}
