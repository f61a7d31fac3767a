package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
	"gorm.io/gorm"
)

type directoryStore struct {
	db *gorm.DB
}

// Put upserts the full profile document; registration retries after a
// partial failure overwrite rather than conflict.
func (s *directoryStore) Put(ctx context.Context, record domain.DirectoryRecord) error {
	rec := directoryModel{
		UID:          record.UID,
		FullName:     record.FullName,
		Email:        record.Email,
		Phone:        record.Phone,
		FarmName:     record.FarmName,
		FarmLocation: record.FarmLocation,
		FarmSize:     record.FarmSize,
		Role:         record.Role,
		IsRegistered: record.IsRegistered,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
		LastLoginAt:  record.LastLoginAt,
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

func (s *directoryStore) Get(ctx context.Context, uid uuid.UUID) (domain.DirectoryRecord, error) {
	var rec directoryModel
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DirectoryRecord{}, domain.ErrNotFound
		}
		return domain.DirectoryRecord{}, err
	}
	return toDomainDirectoryRecord(rec), nil
}

func (s *directoryStore) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&directoryModel{}).
		Where("uid = ?", uid).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *directoryStore) TouchLastLogin(ctx context.Context, uid uuid.UUID, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&directoryModel{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"last_login_at": at,
			"updated_at":    at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toDomainDirectoryRecord(rec directoryModel) domain.DirectoryRecord {
	return domain.DirectoryRecord{
		UID:          rec.UID,
		FullName:     rec.FullName,
		Email:        rec.Email,
		Phone:        rec.Phone,
		FarmName:     rec.FarmName,
		FarmLocation: rec.FarmLocation,
		FarmSize:     rec.FarmSize,
		Role:         rec.Role,
		IsRegistered: rec.IsRegistered,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		LastLoginAt:  rec.LastLoginAt,
	}
}
