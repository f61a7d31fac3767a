package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shambasecure/auth-service/internal/domain"
	"github.com/shambasecure/auth-service/internal/ports"
	"gorm.io/gorm"
)

type accountStore struct {
	db *gorm.DB
}

func (s *accountStore) Create(ctx context.Context, params ports.CreateAccountParams) (domain.Account, error) {
	rec := accountModel{
		Email:         params.Email,
		DisplayName:   params.DisplayName,
		EmailVerified: params.EmailVerified,
		CreatedAt:     params.CreatedAtUTC,
		UpdatedAt:     params.CreatedAtUTC,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Account{}, domain.ErrConflict
		}
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}

func (s *accountStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var rec accountModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}

func (s *accountStore) GetByID(ctx context.Context, uid uuid.UUID) (domain.Account, error) {
	var rec accountModel
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}

// MarkSignedIn promotes the account to email-verified; a completed link
// verification proves ownership of the address.
func (s *accountStore) MarkSignedIn(ctx context.Context, uid uuid.UUID, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"email_verified":  true,
			"last_sign_in_at": at,
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toDomainAccount(rec accountModel) domain.Account {
	return domain.Account{
		UID:           rec.UID,
		Email:         rec.Email,
		DisplayName:   rec.DisplayName,
		EmailVerified: rec.EmailVerified,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		LastSignInAt:  rec.LastSignInAt,
	}
}
