package ledger

import (
	"strings"

	"github.com/comptaflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountClass categorizes an account within the chart of accounts
type AccountClass string

const (
	AccountClassAsset     AccountClass = "ASSET"
	AccountClassLiability AccountClass = "LIABILITY"
	AccountClassEquity    AccountClass = "EQUITY"
	AccountClassRevenue   AccountClass = "REVENUE"
	AccountClassExpense   AccountClass = "EXPENSE"
)

// IsValid checks if the account class is valid
func (c AccountClass) IsValid() bool {
	switch c {
	case AccountClassAsset, AccountClassLiability, AccountClassEquity,
		AccountClassRevenue, AccountClassExpense:
		return true
	}
	return false
}

// Account is an entry in a tenant's chart of accounts. The human-readable
// Code (e.g. a SYSCOHADA code such as "626100") is what external producers
// reference; the ID is internal and never leaves the system.
type Account struct {
	shared.TenantEntity
	Code   string
	Name   string
	Class  AccountClass
	Active bool
}

// NewAccount creates a new account in the tenant's chart of accounts
func NewAccount(tenantID uuid.UUID, code, name string, class AccountClass) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "account code is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "account name is required")
	}
	if !class.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "invalid account class")
	}
	return &Account{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Code:         code,
		Name:         name,
		Class:        class,
		Active:       true,
	}, nil
}
