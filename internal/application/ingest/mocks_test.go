package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/comptaflow/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of ledger.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Account, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockJournalRepository is a mock implementation of ledger.JournalRepository
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) Create(ctx context.Context, entry *ledger.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) FindByExternalRef(ctx context.Context, tenantID uuid.UUID, externalSource, externalID string) (*ledger.JournalEntry, error) {
	args := m.Called(ctx, tenantID, externalSource, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.JournalEntry), args.Error(1)
}

// MockSettingsRepository is a mock implementation of ledger.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) IsDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string) (bool, error) {
	args := m.Called(ctx, tenantID, sourceKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettingsRepository) SetDataSourceEnabled(ctx context.Context, tenantID uuid.UUID, sourceKey string, enabled bool) error {
	args := m.Called(ctx, tenantID, sourceKey, enabled)
	return args.Error(0)
}

// MockSuggestionService is a mock implementation of SuggestionService
type MockSuggestionService struct {
	mock.Mock
}

func (m *MockSuggestionService) SuggestJournalEntries(ctx context.Context, payload MobileTransactionPayload) (*SuggestionResponse, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SuggestionResponse), args.Error(1)
}

// recordedStatus is one captured ReportStatus call
type recordedStatus struct {
	JournalEntryID string
	SourceID       string
	Success        bool
	Message        string
}

// fakeNotifier records status reports in order and signals each arrival so
// tests can wait for asynchronous reports without sleeping.
type fakeNotifier struct {
	mu       sync.Mutex
	statuses []recordedStatus
	arrived  chan recordedStatus
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{arrived: make(chan recordedStatus, 16)}
}

func (n *fakeNotifier) ReportStatus(ctx context.Context, journalEntryID, sourceID string, success bool, message string) {
	status := recordedStatus{
		JournalEntryID: journalEntryID,
		SourceID:       sourceID,
		Success:        success,
		Message:        message,
	}
	n.mu.Lock()
	n.statuses = append(n.statuses, status)
	n.mu.Unlock()
	n.arrived <- status
}

func (n *fakeNotifier) all() []recordedStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]recordedStatus, len(n.statuses))
	copy(out, n.statuses)
	return out
}

func (n *fakeNotifier) wait(timeout time.Duration) (recordedStatus, bool) {
	select {
	case s := <-n.arrived:
		return s, true
	case <-time.After(timeout):
		return recordedStatus{}, false
	}
}

// fakeDedupe is a trivial in-process idempotency store for handler tests
type fakeDedupe struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDedupe() *fakeDedupe {
	return &fakeDedupe{seen: make(map[string]bool)}
}

func (d *fakeDedupe) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

func (d *fakeDedupe) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[eventID], nil
}

func (d *fakeDedupe) Close() error { return nil }
