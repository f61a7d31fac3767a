package postgres

import (
	"github.com/shambasecure/auth-service/internal/ports"
	"gorm.io/gorm"
)

// Stores bundles the relational-store implementations behind one
// constructor so bootstrap wires a single value.
type Stores struct {
	Accounts       ports.AccountStore
	Directory      ports.UserDirectory
	TrustedDevices ports.TrustedDeviceStore
	LoginActivity  ports.LoginActivityStore
}

func NewStores(db *gorm.DB) Stores {
	return Stores{
		Accounts:       &accountStore{db: db},
		Directory:      &directoryStore{db: db},
		TrustedDevices: &trustedDeviceStore{db: db},
		LoginActivity:  &loginActivityStore{db: db},
	}
}
