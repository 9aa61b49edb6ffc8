// Package memstore is the in-memory storage backend.
//
// It keeps every collection in maps guarded by one mutex, which makes all
// single-document operations trivially atomic. Nothing is persisted; the
// backend exists for tests and for embedding the store without a data
// directory.
package memstore
