package registrystore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gridbox/provider/internal/rpcapi"
)

// Store is the registry daemon's GORM-backed account/provider table,
// grounded on arkeep's server/internal/repositories gorm*Repository
// pattern. It is a lookup service only, per spec.md section 6 — it never
// routes a ProviderService call, only reports what is installed.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore wraps an already-opened, migrated *gorm.DB.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("registrystore")}
}

// AddProvider registers a provider kind. Returns ErrConflict if providerID
// is already registered.
func (s *Store) AddProvider(ctx context.Context, providerID, providerName, iconName string) error {
	row := ProviderRow{ProviderID: providerID, ProviderName: providerName, IconName: iconName}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintErr(err) {
			return ErrConflict
		}
		return fmt.Errorf("registrystore: add provider: %w", err)
	}
	return nil
}

// AddAccount registers an account bound to an already-registered provider.
// Returns ErrConflict if accountID is already registered.
func (s *Store) AddAccount(ctx context.Context, accountID, serviceID, displayName, providerID string) error {
	row := AccountRow{AccountID: accountID, ServiceID: serviceID, DisplayName: displayName, ProviderID: providerID}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintErr(err) {
			return ErrConflict
		}
		return fmt.Errorf("registrystore: add account: %w", err)
	}
	return nil
}

// RemoveAccount deletes the account row for accountID. Returns ErrNotFound
// if no such account is registered.
func (s *Store) RemoveAccount(ctx context.Context, accountID string) error {
	result := s.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&AccountRow{})
	if result.Error != nil {
		return fmt.Errorf("registrystore: remove account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every installed account joined against its provider's
// display metadata, in the shape RegistryService.List reports over the
// wire (spec.md section 6: id, serviceId, displayName, providerId,
// providerName, iconName).
func (s *Store) List(ctx context.Context) ([]rpcapi.AccountDetails, error) {
	var rows []struct {
		AccountRow
		ProviderName string
		IconName     string
	}

	err := s.db.WithContext(ctx).
		Table("accounts").
		Select("accounts.*, providers.provider_name, providers.icon_name").
		Joins("LEFT JOIN providers ON providers.provider_id = accounts.provider_id").
		Order("accounts.created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("registrystore: list: %w", err)
	}

	details := make([]rpcapi.AccountDetails, 0, len(rows))
	for _, r := range rows {
		details = append(details, rpcapi.AccountDetails{
			ID:           r.AccountID,
			ServiceID:    r.ServiceID,
			DisplayName:  r.DisplayName,
			ProviderID:   r.ProviderID,
			ProviderName: r.ProviderName,
			IconName:     r.IconName,
		})
	}
	return details, nil
}

func isUniqueConstraintErr(err error) bool {
	// gorm only translates driver errors when TranslateError is enabled, so
	// also match the SQLite message directly.
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		(err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed"))
}
