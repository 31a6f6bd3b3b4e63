package ingest

import (
	"time"

	"github.com/comptaflow/backend/internal/domain/ledger"
)

// ProcessingPolicy is the configuration snapshot applied to a message. It is
// captured once when processing starts and passed explicitly, so the gate
// decision, deadline and confidence threshold cannot change mid-flight under
// a concurrent config reload.
type ProcessingPolicy struct {
	// ProcessingDeadline is the per-message time budget. When it expires a
	// timeout status is reported; in-flight work is not aborted.
	ProcessingDeadline time.Duration

	// NotifyGatedOut controls whether a status event is emitted when a
	// tenant's data source is disabled. Off by default: producers that want
	// to distinguish "gated" from "lost" turn it on.
	NotifyGatedOut bool

	// DedupeTTL is how long producer event ids are remembered for
	// redelivery detection.
	DedupeTTL time.Duration

	// AutoApply gates automatic persistence of AI suggestions
	AutoApply ledger.AutoApplyPolicy
}

// DefaultProcessingPolicy returns the policy used when configuration is absent
func DefaultProcessingPolicy() ProcessingPolicy {
	return ProcessingPolicy{
		ProcessingDeadline: 30 * time.Second,
		NotifyGatedOut:     false,
		DedupeTTL:          24 * time.Hour,
		AutoApply: ledger.AutoApplyPolicy{
			Enabled:       false,
			MinConfidence: 0.7,
		},
	}
}
