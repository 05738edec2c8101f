package store

import (
	"errors"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	ErrNoPickupRecord = errors.New("no pickup record")
)

// PickupRecord is one release of a child to a guardian. Rows are only ever
// inserted; the latest record of a calendar day is the authoritative one.
type PickupRecord struct {
	PickupId         string `gorm:"primary_key"`
	ChildId          string
	GuardianId       string
	PickupTime       time.Time
	RelationshipType string
}

func (s *Store) AddPickupRecord(tx *gorm.DB, record PickupRecord) (PickupRecord, error) {
	db := s.dbOrTx(tx)

	record.PickupId = s.StringGenerator.GenerateUuid()
	if err := db.Create(&record).Error; err != nil {
		return PickupRecord{}, err
	}

	return record, nil
}

// LatestPickupOfChildOnDay returns the most recent record for the child on
// the calendar day containing t, or ErrNoPickupRecord. Day boundaries are
// taken in t's location, the server clock's zone in practice.
func (s *Store) LatestPickupOfChildOnDay(tx *gorm.DB, childId string, t time.Time) (PickupRecord, error) {
	db := s.dbOrTx(tx)

	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	record := PickupRecord{}
	res := db.Where("child_id = ? AND pickup_time >= ? AND pickup_time < ?", childId, dayStart, dayEnd).
		Order("pickup_time desc").
		First(&record)
	if res.RecordNotFound() {
		return PickupRecord{}, ErrNoPickupRecord
	}
	if err := res.Error; err != nil {
		return PickupRecord{}, err
	}

	return record, nil
}

func (s *Store) ListPickupsOfChild(tx *gorm.DB, childId string) ([]PickupRecord, error) {
	db := s.dbOrTx(tx)

	records := []PickupRecord{}
	if err := db.Where("child_id = ?", childId).Order("pickup_time desc").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
