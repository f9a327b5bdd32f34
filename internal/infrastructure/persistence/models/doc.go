// Package models contains the GORM persistence models of the ledger tables.
// Domain types in internal/domain/ledger carry no ORM tags; each model here
// converts to and from its domain type (ToDomain / ...FromDomain).
//
//   - base.go: id and timestamp columns, aggregate version
//   - ledger.go: demands, demand items, adjustments, payments, assessments
//   - audit_log.go: ledger audit trail
package models
