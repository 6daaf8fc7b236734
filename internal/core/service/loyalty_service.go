package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/port"
)

// LoyaltyService tracks and redeems point balances per customer and
// vendor.
type LoyaltyService struct {
	store   port.DocumentStore
	timeout time.Duration
}

func NewLoyaltyService(store port.DocumentStore, timeout time.Duration) *LoyaltyService {
	return &LoyaltyService{store: store, timeout: timeout}
}

// EnsureAccount idempotently creates a zero-balance account so the
// customer's overview can show vendors they have not ordered from yet.
// The check-and-create runs in one transaction: a concurrent accrual
// can never be overwritten by the zero account.
func (s *LoyaltyService) EnsureAccount(ctx context.Context, customerID, vendorID, vendorName string) (domain.LoyaltyAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	path := loyaltyPath(customerID, vendorID)
	var account domain.LoyaltyAccount
	err := s.store.RunTransaction(ctx, func(tx port.Tx) error {
		doc, err := tx.Get(path)
		if errors.Is(err, port.ErrNotFound) {
			account = domain.LoyaltyAccount{VendorName: vendorName}
			return tx.Set(path, account)
		}
		if err != nil {
			return fmt.Errorf("fetch loyalty account: %w", err)
		}
		account, err = decodeAccount(doc, customerID)
		return err
	})
	if err != nil {
		return domain.LoyaltyAccount{}, fmt.Errorf("ensure loyalty account: %w", err)
	}
	account.CustomerID = customerID
	account.VendorID = vendorID
	return account, nil
}

// Accrue transactionally adds delta points to the (customer, vendor)
// account, creating it on first use. Concurrent accruals never lose
// an update.
func (s *LoyaltyService) Accrue(ctx context.Context, customerID, vendorID, vendorName string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.store.RunTransaction(ctx, func(tx port.Tx) error {
		return accrue(tx, customerID, vendorID, vendorName, delta)
	})
	if err != nil {
		return fmt.Errorf("accrue points: %w", err)
	}
	return nil
}

// Redeem spends the vendor's configured threshold from the customer's
// balance and records the redemption event, both in one transaction.
// Balances above the threshold keep their remainder.
func (s *LoyaltyService) Redeem(ctx context.Context, customerID, vendorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now, err := s.store.ServerTime(ctx)
	if err != nil {
		return fmt.Errorf("server time: %w", err)
	}
	redemptionID := uuid.NewString()

	err = s.store.RunTransaction(ctx, func(tx port.Tx) error {
		settingsDoc, err := tx.Get(loyaltySettingsPath(vendorID))
		if errors.Is(err, port.ErrNotFound) {
			return ErrNoLoyaltyProgram
		}
		if err != nil {
			return fmt.Errorf("fetch loyalty settings: %w", err)
		}
		var settings domain.LoyaltySettings
		if err := settingsDoc.Decode(&settings); err != nil {
			return fmt.Errorf("decode loyalty settings: %w", err)
		}

		accountDoc, err := tx.Get(loyaltyPath(customerID, vendorID))
		if errors.Is(err, port.ErrNotFound) {
			return ErrInsufficientPoints
		}
		if err != nil {
			return fmt.Errorf("fetch loyalty account: %w", err)
		}
		var account domain.LoyaltyAccount
		if err := accountDoc.Decode(&account); err != nil {
			return fmt.Errorf("decode loyalty account: %w", err)
		}

		if account.Points < settings.PointsNeeded {
			return ErrInsufficientPoints
		}

		if err := tx.Update(loyaltyPath(customerID, vendorID), map[string]any{
			"points": account.Points - settings.PointsNeeded,
		}); err != nil {
			return err
		}
		return tx.Set(redemptionPath(vendorID, redemptionID), domain.Redemption{
			CustomerID: customerID,
			RedeemedAt: now,
		})
	})
	switch {
	case errors.Is(err, ErrInsufficientPoints):
		return ErrInsufficientPoints
	case errors.Is(err, ErrNoLoyaltyProgram):
		return ErrNoLoyaltyProgram
	case err != nil:
		return fmt.Errorf("redeem points: %w", err)
	}
	return nil
}

// LoyaltyStatus is one row of a customer's loyalty overview: the
// balance plus the vendor's reward configuration, when present.
type LoyaltyStatus struct {
	Account  domain.LoyaltyAccount
	Settings *domain.LoyaltySettings
}

// Overview lists the customer's balances across vendors, enriched with
// each vendor's current name and settings. Vendors without a settings
// document show a nil Settings.
func (s *LoyaltyService) Overview(ctx context.Context, customerID string) ([]LoyaltyStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.store.Query(ctx, loyaltyCollection(customerID))
	if err != nil {
		return nil, fmt.Errorf("query loyalty accounts: %w", err)
	}

	statuses := make([]LoyaltyStatus, 0, len(docs))
	for _, doc := range docs {
		account, err := decodeAccount(doc, customerID)
		if err != nil {
			return nil, err
		}
		status := LoyaltyStatus{Account: account}

		settings, err := s.Settings(ctx, account.VendorID)
		if err != nil && !errors.Is(err, ErrNoLoyaltyProgram) {
			return nil, err
		}
		status.Settings = settings

		if vendor, err := fetchVendor(ctx, s.store, account.VendorID); err == nil {
			status.Account.VendorName = vendor.Name
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Settings returns a vendor's loyalty configuration, or
// ErrNoLoyaltyProgram when none was saved.
func (s *LoyaltyService) Settings(ctx context.Context, vendorID string) (*domain.LoyaltySettings, error) {
	doc, err := s.store.Get(ctx, loyaltySettingsPath(vendorID))
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrNoLoyaltyProgram
	}
	if err != nil {
		return nil, fmt.Errorf("fetch loyalty settings: %w", err)
	}
	var settings domain.LoyaltySettings
	if err := doc.Decode(&settings); err != nil {
		return nil, fmt.Errorf("decode loyalty settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings writes a vendor's loyalty configuration.
func (s *LoyaltyService) SaveSettings(ctx context.Context, vendorID string, settings domain.LoyaltySettings) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if settings.PointsNeeded < 1 {
		return fmt.Errorf("pointsNeeded must be positive")
	}
	if err := s.store.Set(ctx, loyaltySettingsPath(vendorID), settings, false); err != nil {
		return fmt.Errorf("save loyalty settings: %w", err)
	}
	return nil
}

func decodeAccount(doc port.Document, customerID string) (domain.LoyaltyAccount, error) {
	var account domain.LoyaltyAccount
	if err := doc.Decode(&account); err != nil {
		return domain.LoyaltyAccount{}, fmt.Errorf("decode loyalty account %s: %w", doc.ID, err)
	}
	account.CustomerID = customerID
	account.VendorID = doc.ID
	return account, nil
}
