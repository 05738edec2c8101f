package store

import (
	"errors"

	"github.com/jinzhu/gorm"
)

var (
	ErrGuardianNotFound        = errors.New("guardian not found")
	ErrInvalidRelationshipType = errors.New("relationship type is not valid")
)

const (
	REL_PARENT_FATHER = "parent_father"
	REL_PARENT_MOTHER = "parent_mother"
	REL_TUTOR         = "tutor"
	REL_OTHER_FAMILY  = "other_family"
)

var allRelationshipTypes = []string{REL_PARENT_FATHER, REL_PARENT_MOTHER, REL_TUTOR, REL_OTHER_FAMILY}

// Guardian is an enrolled adult. Note carries free text that is only
// meaningful for tutors and other family members.
type Guardian struct {
	GuardianId       string `gorm:"primary_key"`
	FirstName        string
	LastName         string
	Email            string
	NationalId       string
	RelationshipType string
	Note             string
	Embedding        Embedding `sql:"type:jsonb"`
}

func IsRelationshipTypeValid(relationshipType string) bool {
	for _, rel := range allRelationshipTypes {
		if rel == relationshipType {
			return true
		}
	}
	return false
}

func (s *Store) AddGuardian(tx *gorm.DB, guardian Guardian) (Guardian, error) {
	db := s.dbOrTx(tx)

	if !IsRelationshipTypeValid(guardian.RelationshipType) {
		return Guardian{}, ErrInvalidRelationshipType
	}

	guardian.GuardianId = s.StringGenerator.GenerateUuid()
	if err := db.Create(&guardian).Error; err != nil {
		return Guardian{}, err
	}

	return guardian, nil
}

func (s *Store) GetGuardian(tx *gorm.DB, guardianId string) (Guardian, error) {
	db := s.dbOrTx(tx)

	guardian := Guardian{}
	res := db.Where("guardian_id = ?", guardianId).First(&guardian)
	if res.RecordNotFound() {
		return Guardian{}, ErrGuardianNotFound
	}
	if err := res.Error; err != nil {
		return Guardian{}, err
	}

	return guardian, nil
}

func (s *Store) ListGuardians(tx *gorm.DB) ([]Guardian, error) {
	db := s.dbOrTx(tx)

	guardians := []Guardian{}
	if err := db.Order("guardian_id asc").Find(&guardians).Error; err != nil {
		return nil, err
	}

	return guardians, nil
}

// ListEnrolledGuardians returns guardians that have an embedding, ordered by
// ascending id. The order is part of the matcher contract: ties between
// equal scores keep the first candidate seen.
func (s *Store) ListEnrolledGuardians(tx *gorm.DB) ([]Guardian, error) {
	db := s.dbOrTx(tx)

	guardians := []Guardian{}
	if err := db.Where("embedding IS NOT NULL").Order("guardian_id asc").Find(&guardians).Error; err != nil {
		return nil, err
	}

	return guardians, nil
}

func (s *Store) UpdateGuardian(tx *gorm.DB, guardian Guardian) (Guardian, error) {
	db := s.dbOrTx(tx)

	if guardian.RelationshipType != "" && !IsRelationshipTypeValid(guardian.RelationshipType) {
		return Guardian{}, ErrInvalidRelationshipType
	}

	res := db.Where("guardian_id = ?", guardian.GuardianId).Model(&Guardian{}).Updates(guardian)
	if res.RecordNotFound() || res.RowsAffected == 0 {
		return Guardian{}, ErrGuardianNotFound
	}
	if err := res.Error; err != nil {
		return Guardian{}, err
	}

	return s.GetGuardian(db, guardian.GuardianId)
}

// SetGuardianEmbedding replaces the stored embedding. Updates() skips the
// embedding field on re-enrollment with an otherwise empty struct, hence the
// dedicated setter.
func (s *Store) SetGuardianEmbedding(tx *gorm.DB, guardianId string, embedding Embedding) error {
	db := s.dbOrTx(tx)

	res := db.Model(&Guardian{}).Where("guardian_id = ?", guardianId).Update("embedding", embedding)
	if err := res.Error; err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrGuardianNotFound
	}

	return nil
}

func (s *Store) DeleteGuardian(tx *gorm.DB, guardianId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetGuardian(db, guardianId); err != nil {
		return err
	}

	if err := db.Where("guardian_id = ?", guardianId).Delete(&GuardianOf{}).Error; err != nil {
		return err
	}
	if err := db.Where("guardian_id = ?", guardianId).Delete(&PickupRule{}).Error; err != nil {
		return err
	}
	if err := db.Where("guardian_id = ?", guardianId).Delete(&Guardian{}).Error; err != nil {
		return err
	}

	return nil
}
