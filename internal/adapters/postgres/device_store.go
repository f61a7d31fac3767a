package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
	"gorm.io/gorm"
)

type trustedDeviceStore struct {
	db *gorm.DB
}

func (s *trustedDeviceStore) List(ctx context.Context, uid uuid.UUID) ([]domain.TrustedDevice, error) {
	var recs []trustedDeviceModel
	if err := s.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("last_used_at DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	devices := make([]domain.TrustedDevice, 0, len(recs))
	for _, rec := range recs {
		devices = append(devices, toDomainTrustedDevice(rec))
	}
	return devices, nil
}

// IsTrusted refreshes last_used_at on a hit so the eviction order below
// stays LRU.
func (s *trustedDeviceStore) IsTrusted(ctx context.Context, uid uuid.UUID, fingerprint string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&trustedDeviceModel{}).
		Where("uid = ? AND fingerprint = ?", uid, fingerprint).
		Update("last_used_at", time.Now().UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Add upserts the device and evicts the least recently used entries beyond
// limit inside one transaction.
func (s *trustedDeviceStore) Add(ctx context.Context, uid uuid.UUID, device domain.TrustedDevice, limit int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing trustedDeviceModel
		err := tx.Where("uid = ? AND fingerprint = ?", uid, device.Fingerprint).Take(&existing).Error
		switch {
		case err == nil:
			return tx.Model(&existing).Updates(map[string]any{
				"device_type":  device.DeviceType,
				"os":           device.OS,
				"browser":      device.Browser,
				"ip_address":   device.IPAddress,
				"last_used_at": device.LastUsedAt,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		rec := trustedDeviceModel{
			UID:         uid,
			Fingerprint: device.Fingerprint,
			DeviceType:  device.DeviceType,
			OS:          device.OS,
			Browser:     device.Browser,
			IPAddress:   device.IPAddress,
			AddedAt:     device.AddedAt,
			LastUsedAt:  device.LastUsedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}

		if limit <= 0 {
			return nil
		}
		var count int64
		if err := tx.Model(&trustedDeviceModel{}).Where("uid = ?", uid).Count(&count).Error; err != nil {
			return err
		}
		if count <= int64(limit) {
			return nil
		}
		return tx.Exec(`
			DELETE FROM trusted_devices
			WHERE id IN (
				SELECT id FROM trusted_devices
				WHERE uid = ?
				ORDER BY last_used_at ASC
				LIMIT ?
			)`, uid, count-int64(limit)).Error
	})
}

func (s *trustedDeviceStore) Remove(ctx context.Context, uid uuid.UUID, fingerprint string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("uid = ? AND fingerprint = ?", uid, fingerprint).
		Delete(&trustedDeviceModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func toDomainTrustedDevice(rec trustedDeviceModel) domain.TrustedDevice {
	return domain.TrustedDevice{
		Fingerprint: rec.Fingerprint,
		DeviceType:  rec.DeviceType,
		OS:          rec.OS,
		Browser:     rec.Browser,
		IPAddress:   rec.IPAddress,
		AddedAt:     rec.AddedAt,
		LastUsedAt:  rec.LastUsedAt,
	}
}
