package store

import "github.com/jinzhu/gorm"

// Store gives access to the guardians, children, link, rule and ledger
// tables. Every accessor takes an optional transaction handle; pass nil to
// run against the base connection.
type Store struct {
	Db              *gorm.DB `inject:""`
	StringGenerator interface {
		GenerateUuid() string
	} `inject:""`
}

// Tx opens a transaction for callers that need several accessors to commit
// or roll back together, the ledger read-then-insert in particular.
func (s *Store) Tx() *gorm.DB {
	return s.Db.Begin()
}

func (s *Store) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.Db
}
