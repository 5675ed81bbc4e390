package registrystore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// base mirrors arkeep's server/internal/db base type: a UUIDv7 primary key
// assigned on insert, giving time-ordered IDs without a separate sort
// column.
type base struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (b *base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == (uuid.UUID{}) {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	return nil
}

// ProviderRow is an installed back-end provider kind (e.g. "local",
// "s3") available to be bound to an account.
type ProviderRow struct {
	base
	ProviderID   string `gorm:"uniqueIndex;not null"`
	ProviderName string `gorm:"not null"`
	IconName     string `gorm:"not null;default:''"`
}

func (ProviderRow) TableName() string { return "providers" }

// AccountRow is one installed account, bound to a provider kind, that
// RegistryService.List reports to callers per spec.md section 6.
type AccountRow struct {
	base
	AccountID   string `gorm:"column:account_id;uniqueIndex;not null"`
	ServiceID   string `gorm:"column:service_id;not null"`
	DisplayName string `gorm:"column:display_name;not null"`
	ProviderID  string `gorm:"column:provider_id;not null"`
}

func (AccountRow) TableName() string { return "accounts" }
