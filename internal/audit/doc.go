// Package audit stamps provenance metadata on tracked entities and derives
// field-level audit trails on every unit-of-work commit.
//
// The interceptor runs inside the commit transaction, after the transaction
// is opened and before any entity write is dispatched. Every Added, Modified
// or Deleted auditable entity yields one trail per scalar property. Trails are
// handed to a Sink that persists them in the same transaction, so a rolled
// back commit leaves no history behind.
package audit
