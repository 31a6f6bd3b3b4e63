package ledger

import (
	"testing"
	"time"

	"github.com/comptaflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLines() []JournalLine {
	return []JournalLine{
		{AccountID: uuid.New(), Description: "Supplies", Debit: decimal.NewFromInt(100)},
		{AccountID: uuid.New(), Description: "Supplier", Credit: decimal.NewFromInt(100)},
	}
}

func TestNewJournalEntry_RecomputesAmount(t *testing.T) {
	entry, err := NewJournalEntry(
		uuid.New(),
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		"Office supplies",
		JournalTypePurchases,
		valueobject.CDF,
		"evt-001", SourceCommerce,
		EntryStatusPosted,
		testLines(),
	)

	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, entry.IsBalanced())
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, "evt-001", entry.ExternalID)
}

func TestNewJournalEntry_AmountIsMaxOfSides(t *testing.T) {
	lines := []JournalLine{
		{AccountID: uuid.New(), Description: "a", Debit: decimal.NewFromInt(80)},
		{AccountID: uuid.New(), Description: "b", Credit: decimal.NewFromInt(100)},
	}
	entry, err := NewJournalEntry(uuid.New(), time.Now(), "x", JournalTypeGeneral,
		valueobject.CDF, "evt", SourceCommerce, EntryStatusPosted, lines)

	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(100)))
	assert.False(t, entry.IsBalanced())
}

func TestNewJournalEntry_Rejections(t *testing.T) {
	tenant := uuid.New()
	tests := []struct {
		name  string
		build func() (*JournalEntry, error)
	}{
		{
			name: "nil tenant",
			build: func() (*JournalEntry, error) {
				return NewJournalEntry(uuid.Nil, time.Now(), "x", JournalTypeGeneral,
					valueobject.CDF, "evt", SourceCommerce, EntryStatusPosted, testLines())
			},
		},
		{
			name: "no lines",
			build: func() (*JournalEntry, error) {
				return NewJournalEntry(tenant, time.Now(), "x", JournalTypeGeneral,
					valueobject.CDF, "evt", SourceCommerce, EntryStatusPosted, nil)
			},
		},
		{
			name: "negative line amount",
			build: func() (*JournalEntry, error) {
				lines := testLines()
				lines[0].Debit = decimal.NewFromInt(-1)
				return NewJournalEntry(tenant, time.Now(), "x", JournalTypeGeneral,
					valueobject.CDF, "evt", SourceCommerce, EntryStatusPosted, lines)
			},
		},
		{
			name: "invalid journal type",
			build: func() (*JournalEntry, error) {
				return NewJournalEntry(tenant, time.Now(), "x", JournalType("WEIRD"),
					valueobject.CDF, "evt", SourceCommerce, EntryStatusPosted, testLines())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := tt.build()
			assert.Error(t, err)
			assert.Nil(t, entry)
		})
	}
}

func TestNewJournalEntry_DefaultsCurrency(t *testing.T) {
	entry, err := NewJournalEntry(uuid.New(), time.Now(), "x", JournalTypeGeneral,
		"", "evt", SourceCommerce, EntryStatusPosted, testLines())

	require.NoError(t, err)
	assert.Equal(t, valueobject.CDF, entry.Currency)
}

func TestMapJournalType(t *testing.T) {
	tests := []struct {
		raw        string
		want       JournalType
		recognized bool
	}{
		{"general", JournalTypeGeneral, true},
		{"Sales", JournalTypeSales, true},
		{"vente", JournalTypeSales, true},
		{"PURCHASES", JournalTypePurchases, true},
		{"achat", JournalTypePurchases, true},
		{"bank", JournalTypeBank, true},
		{"caisse", JournalTypeCash, true},
		{"  cash  ", JournalTypeCash, true},
		{"miscellaneous", JournalTypeGeneral, false},
		{"", JournalTypeGeneral, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, recognized := MapJournalType(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.recognized, recognized)
		})
	}
}

func TestParseEventDate(t *testing.T) {
	for _, raw := range []string{"2026-03-15", "2026-03-15T10:30:00Z", "2026-03-15 10:30:00"} {
		parsed, err := ParseEventDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 2026, parsed.Year())
	}

	_, err := ParseEventDate("15/03/2026")
	assert.Error(t, err)
}
