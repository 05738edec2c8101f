package store

import (
	"errors"

	"github.com/jinzhu/gorm"
)

var (
	ErrGuardianNotLinked  = errors.New("guardian is not linked to this child")
	ErrGuardianLimit      = errors.New("a child can have at most 4 linked guardians")
	ErrGuardianAlreadySet = errors.New("guardian is already linked to this child")
)

const maxGuardiansPerChild = 4

type GuardianOf struct {
	GuardianId string
	ChildId    string
}

func (GuardianOf) TableName() string {
	return "guardian_of"
}

func (s *Store) SetGuardianOf(tx *gorm.DB, link GuardianOf) error {
	db := s.dbOrTx(tx)

	count := 0
	if err := db.Model(&GuardianOf{}).Where("child_id = ?", link.ChildId).Count(&count).Error; err != nil {
		return err
	}
	if count >= maxGuardiansPerChild {
		return ErrGuardianLimit
	}

	if s.IsGuardianOf(db, link.GuardianId, link.ChildId) {
		return ErrGuardianAlreadySet
	}

	return db.Create(&link).Error
}

func (s *Store) RemoveGuardianOf(tx *gorm.DB, link GuardianOf) error {
	db := s.dbOrTx(tx)

	if !s.IsGuardianOf(db, link.GuardianId, link.ChildId) {
		return ErrGuardianNotLinked
	}

	return db.Where("guardian_id = ? AND child_id = ?", link.GuardianId, link.ChildId).Delete(&GuardianOf{}).Error
}

func (s *Store) IsGuardianOf(tx *gorm.DB, guardianId, childId string) bool {
	db := s.dbOrTx(tx)

	count := 0
	db.Model(&GuardianOf{}).Where("guardian_id = ? AND child_id = ?", guardianId, childId).Count(&count)
	return count > 0
}

func (s *Store) ListGuardiansOfChild(tx *gorm.DB, childId string) ([]Guardian, error) {
	db := s.dbOrTx(tx)

	guardians := []Guardian{}
	err := db.Joins("join guardian_of on guardian_of.guardian_id = guardians.guardian_id").
		Where("guardian_of.child_id = ?", childId).
		Order("guardians.guardian_id asc").
		Find(&guardians).Error
	if err != nil {
		return nil, err
	}

	return guardians, nil
}
