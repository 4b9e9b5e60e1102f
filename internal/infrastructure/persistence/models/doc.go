// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// domain type with ToDomain and FromDomain.
//
//   - base.go: audited aggregate columns shared by every root
//   - document.go: documents, lines and courtesy-copy links
//   - party.go: clients, contacts and suppliers
//   - company.go: the single company settings row
package models
