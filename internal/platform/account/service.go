package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/geo"
)

// Service handles account business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Create registers the profile of an authenticated caller
func (s *Service) Create(ctx context.Context, p CreateParams) (*Account, error) {
	now := s.now().UTC()
	a := &Account{
		ID:        p.ID,
		Role:      p.Role,
		Name:      strings.TrimSpace(p.Name),
		Email:     strings.TrimSpace(p.Email),
		Phone:     strings.TrimSpace(p.Phone),
		Available: p.Role == RoleHandyman,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns an account by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// RegisterPushToken stores the device token notifications are sent to
func (s *Service) RegisterPushToken(ctx context.Context, id uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenRequired
	}
	return s.repo.UpdatePushToken(ctx, id, token)
}

// PushToken returns the device token of an account, empty when none is registered
func (s *Service) PushToken(ctx context.Context, id uuid.UUID) (string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return a.PushToken, nil
}

// UpdateLocation stores the last known position of an account
func (s *Service) UpdateLocation(ctx context.Context, id uuid.UUID, p geo.Point) error {
	if err := p.Validate(); err != nil {
		return ErrInvalidLocation
	}
	if err := s.repo.UpdateLocation(ctx, id, p); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

// UpdateBankDetails stores the payout account of a handyman
func (s *Service) UpdateBankDetails(ctx context.Context, id uuid.UUID, bank ledger.BankDetails) error {
	bank.BankName = strings.TrimSpace(bank.BankName)
	bank.AccountNumber = strings.TrimSpace(bank.AccountNumber)
	if !bank.Complete() {
		return ErrInvalidBank
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Role != RoleHandyman {
		return ErrNotHandyman
	}
	return s.repo.UpdateBankDetails(ctx, id, bank)
}

// SetAvailability toggles whether a handyman accepts new bookings
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Role != RoleHandyman {
		return ErrNotHandyman
	}
	return s.repo.SetAvailability(ctx, id, available)
}
