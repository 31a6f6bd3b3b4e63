package models

import (
	"time"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/comptaflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for chart-of-accounts entries.
type AccountModel struct {
	TenantModel
	Code   string              `gorm:"type:varchar(20);not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name   string              `gorm:"type:varchar(200);not null"`
	Class  ledger.AccountClass `gorm:"type:varchar(20);not null"`
	Active bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *ledger.Account {
	account := &ledger.Account{
		Code:   m.Code,
		Name:   m.Name,
		Class:  m.Class,
		Active: m.Active,
	}
	m.PopulateTenantEntity(&account.TenantEntity)
	return account
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainTenantEntity(a.TenantEntity)
	m.Code = a.Code
	m.Name = a.Name
	m.Class = a.Class
	m.Active = a.Active
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// JournalEntryModel is the persistence model for journal entry headers.
// The unique index on (tenant_id, external_source, external_id) is created
// by migration as a partial index excluding empty external ids, so entries
// without an external reference never collide.
type JournalEntryModel struct {
	TenantModel
	Date           time.Time            `gorm:"not null;index"`
	Description    string               `gorm:"type:varchar(500);not null"`
	JournalType    ledger.JournalType   `gorm:"type:varchar(20);not null;index"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null"`
	Amount         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ExternalID     string               `gorm:"type:varchar(100);not null;default:'';index"`
	ExternalSource string               `gorm:"type:varchar(50);not null;default:''"`
	Status         ledger.EntryStatus   `gorm:"type:varchar(20);not null;index"`
	Lines          []JournalLineModel   `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry entity.
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	lines := make([]ledger.JournalLine, 0, len(m.Lines))
	for _, lm := range m.Lines {
		lines = append(lines, ledger.JournalLine{
			AccountID:   lm.AccountID,
			Description: lm.Description,
			Debit:       lm.Debit,
			Credit:      lm.Credit,
		})
	}

	entry := &ledger.JournalEntry{
		Date:           m.Date,
		Description:    m.Description,
		JournalType:    m.JournalType,
		Currency:       m.Currency,
		Amount:         m.Amount,
		ExternalID:     m.ExternalID,
		ExternalSource: m.ExternalSource,
		Status:         m.Status,
		Lines:          lines,
	}
	m.PopulateTenantEntity(&entry.TenantEntity)
	return entry
}

// FromDomain populates the persistence model from a domain JournalEntry entity.
func (m *JournalEntryModel) FromDomain(e *ledger.JournalEntry) {
	m.FromDomainTenantEntity(e.TenantEntity)
	m.Date = e.Date
	m.Description = e.Description
	m.JournalType = e.JournalType
	m.Currency = e.Currency
	m.Amount = e.Amount
	m.ExternalID = e.ExternalID
	m.ExternalSource = e.ExternalSource
	m.Status = e.Status

	m.Lines = make([]JournalLineModel, 0, len(e.Lines))
	for i, line := range e.Lines {
		m.Lines = append(m.Lines, JournalLineModel{
			BaseModel: BaseModel{
				ID:        uuid.New(),
				CreatedAt: e.CreatedAt,
				UpdatedAt: e.UpdatedAt,
			},
			EntryID:     e.ID,
			Position:    i,
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
}

// JournalEntryModelFromDomain creates a new persistence model from a domain JournalEntry.
func JournalEntryModelFromDomain(e *ledger.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{}
	m.FromDomain(e)
	return m
}

// JournalLineModel is the persistence model for individual journal lines.
type JournalLineModel struct {
	BaseModel
	EntryID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500)"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Credit      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// DataSourceSettingModel is the persistence model for per-tenant ingestion
// gates. A missing row means the source is enabled.
type DataSourceSettingModel struct {
	TenantModel
	Source  string `gorm:"type:varchar(50);not null;uniqueIndex:idx_setting_tenant_source,priority:2"`
	Enabled bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (DataSourceSettingModel) TableName() string {
	return "data_source_settings"
}
