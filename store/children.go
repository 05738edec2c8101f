package store

import (
	"errors"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	ErrChildNotFound = errors.New("child not found")
)

const (
	CHILD_STATUS_ACTIVE   = "active"
	CHILD_STATUS_INACTIVE = "inactive"
)

type Child struct {
	ChildId    string `gorm:"primary_key"`
	FirstName  string
	LastName   string
	Grade      string
	NationalId string
	BirthDate  time.Time
	Status     string
}

func (s *Store) AddChild(tx *gorm.DB, child Child) (Child, error) {
	db := s.dbOrTx(tx)

	child.ChildId = s.StringGenerator.GenerateUuid()
	if child.Status == "" {
		child.Status = CHILD_STATUS_ACTIVE
	}
	if err := db.Create(&child).Error; err != nil {
		return Child{}, err
	}

	return child, nil
}

func (s *Store) GetChild(tx *gorm.DB, childId string) (Child, error) {
	db := s.dbOrTx(tx)

	child := Child{}
	res := db.Where("child_id = ?", childId).First(&child)
	if res.RecordNotFound() {
		return Child{}, ErrChildNotFound
	}
	if err := res.Error; err != nil {
		return Child{}, err
	}

	return child, nil
}

func (s *Store) ListChildren(tx *gorm.DB) ([]Child, error) {
	db := s.dbOrTx(tx)

	children := []Child{}
	if err := db.Order("child_id asc").Find(&children).Error; err != nil {
		return nil, err
	}

	return children, nil
}

// ListChildrenOfGuardian returns the children linked to a guardian in
// ascending child id order. The authorization engine depends on this order
// being stable: it decides which child short-circuits a verification when
// several have same-day conflicts.
func (s *Store) ListChildrenOfGuardian(tx *gorm.DB, guardianId string) ([]Child, error) {
	db := s.dbOrTx(tx)

	children := []Child{}
	err := db.Joins("join guardian_of on guardian_of.child_id = children.child_id").
		Where("guardian_of.guardian_id = ?", guardianId).
		Order("children.child_id asc").
		Find(&children).Error
	if err != nil {
		return nil, err
	}

	return children, nil
}

func (s *Store) UpdateChild(tx *gorm.DB, child Child) (Child, error) {
	db := s.dbOrTx(tx)

	res := db.Where("child_id = ?", child.ChildId).Model(&Child{}).Updates(child)
	if res.RecordNotFound() || res.RowsAffected == 0 {
		return Child{}, ErrChildNotFound
	}
	if err := res.Error; err != nil {
		return Child{}, err
	}

	return s.GetChild(db, child.ChildId)
}

func (s *Store) DeleteChild(tx *gorm.DB, childId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetChild(db, childId); err != nil {
		return err
	}

	if err := db.Where("child_id = ?", childId).Delete(&GuardianOf{}).Error; err != nil {
		return err
	}
	if err := db.Where("child_id = ?", childId).Delete(&PickupRule{}).Error; err != nil {
		return err
	}
	if err := db.Where("child_id = ?", childId).Delete(&Child{}).Error; err != nil {
		return err
	}

	return nil
}
