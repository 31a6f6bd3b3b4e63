package ledger

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository is the read-only lookup against a tenant's chart of
// accounts. FindByCode returns shared.ErrNotFound for an unknown code; an
// unknown code is routine, not exceptional.
type AccountRepository interface {
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	Save(ctx context.Context, account *Account) error
}

// JournalRepository persists journal entries. Create writes the header and
// all lines in a single unit of work and returns shared.ErrAlreadyExists
// when an entry with the same (tenant, external source, external id) has
// already been persisted - redelivered events must not create duplicates.
type JournalRepository interface {
	Create(ctx context.Context, entry *JournalEntry) error
	FindByExternalRef(ctx context.Context, tenantID uuid.UUID, externalSource, externalID string) (*JournalEntry, error)
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
}

// SettingsRepository exposes the per-tenant data-source feature gate.
// A tenant with no explicit setting for a source key is treated as enabled.
type SettingsRepository interface {
	IsDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string) (bool, error)
	SetDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string, enabled bool) error
}
