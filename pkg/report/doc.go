// Package report defines the data model produced by a collection pass:
// canonical resource records keyed by identity, their typed relationships,
// component groupings, the cluster overview, and the immutable Document
// that rendering and export collaborators consume.
//
// All cross-references between records are identity references into the
// Document's index, never embedded object pointers, so a relationship can
// point at a resource that was intentionally excluded from the collection
// scope (for example a Node referenced by a Pod in a namespaced pass) and
// still render as plain text.
package report
