package postgres

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountModel struct {
	UID           uuid.UUID  `gorm:"column:uid;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string     `gorm:"column:email"`
	DisplayName   string     `gorm:"column:display_name"`
	EmailVerified bool       `gorm:"column:email_verified"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
	LastSignInAt  *time.Time `gorm:"column:last_sign_in_at"`
}

func (accountModel) TableName() string { return "accounts" }

type directoryModel struct {
	UID          uuid.UUID  `gorm:"column:uid;type:uuid;primaryKey"`
	FullName     string     `gorm:"column:full_name"`
	Email        string     `gorm:"column:email"`
	Phone        string     `gorm:"column:phone"`
	FarmName     string     `gorm:"column:farm_name"`
	FarmLocation string     `gorm:"column:farm_location"`
	FarmSize     string     `gorm:"column:farm_size"`
	Role         string     `gorm:"column:role"`
	IsRegistered bool       `gorm:"column:is_registered"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}

func (directoryModel) TableName() string { return "user_profiles" }

type trustedDeviceModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	UID         uuid.UUID `gorm:"column:uid;type:uuid"`
	Fingerprint string    `gorm:"column:fingerprint"`
	DeviceType  string    `gorm:"column:device_type"`
	OS          string    `gorm:"column:os"`
	Browser     string    `gorm:"column:browser"`
	IPAddress   string    `gorm:"column:ip_address"`
	AddedAt     time.Time `gorm:"column:added_at"`
	LastUsedAt  time.Time `gorm:"column:last_used_at"`
}

func (trustedDeviceModel) TableName() string { return "trusted_devices" }

type loginActivityModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	UID         uuid.UUID `gorm:"column:uid;type:uuid"`
	OccurredAt  time.Time `gorm:"column:occurred_at"`
	Fingerprint string    `gorm:"column:fingerprint"`
	IPAddress   string    `gorm:"column:ip_address"`
	UserAgent   string    `gorm:"column:user_agent"`
	Status      string    `gorm:"column:status"`
}

func (loginActivityModel) TableName() string { return "login_activity" }

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
