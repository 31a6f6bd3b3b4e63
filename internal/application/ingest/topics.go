package ingest

// Bus topics consumed and produced by the ingestion pipeline
const (
	// TopicJournalEntry carries externally-produced accounting facts
	TopicJournalEntry = "accounting.journal.entry"
	// TopicMobileTransaction carries raw mobile transactions for AI suggestion
	TopicMobileTransaction = "mobile.transaction.created"
	// TopicJournalStatus carries processing-outcome reports back to producers
	TopicJournalStatus = "accounting.journal.status"
)
