package account

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/ledger"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/money"
)

// Role distinguishes customers from service providers
type Role string

const (
	RoleUser     Role = "user"
	RoleHandyman Role = "handyman"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether the role can own an account
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleHandyman
}

// Account is a user or handyman profile with its wallet balance
type Account struct {
	ID        uuid.UUID
	Role      Role
	Name      string
	Email     string
	Phone     string
	Balance   money.Amount
	PushToken string
	Bank      *ledger.BankDetails
	Location  *geo.Point
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the account
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return ErrInvalidAccountID
	}
	if !a.Role.IsValid() {
		return ErrInvalidRole
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrNameRequired
	}
	if a.Email != "" && !isValidEmail(a.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// CreateParams is a new profile for an authenticated caller
type CreateParams struct {
	ID    uuid.UUID
	Role  Role
	Name  string
	Email string
	Phone string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// isValidEmail checks if the email format is valid
func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
