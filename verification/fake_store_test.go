package verification_test

import (
	"fmt"
	"sync"
	"time"

	"github.com/ClearGateLLC/kidpass/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

// fakeStore is an in-memory stand-in for the store: Tx returns nil, which
// the service treats as a non-transactional store, and pickup writes can be
// made to fail a configurable number of times to exercise the retry path.
type fakeStore struct {
	mu sync.Mutex

	guardians          []store.Guardian
	childrenByGuardian map[string][]store.Child
	rules              map[string]store.PickupRule
	records            []store.PickupRecord

	failAddPickupTimes int
	nextId             int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		childrenByGuardian: map[string][]store.Child{},
		rules:              map[string]store.PickupRule{},
	}
}

func (f *fakeStore) Tx() *gorm.DB {
	return nil
}

func (f *fakeStore) ListEnrolledGuardians(tx *gorm.DB) ([]store.Guardian, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	enrolled := []store.Guardian{}
	for _, guardian := range f.guardians {
		if len(guardian.Embedding) > 0 {
			enrolled = append(enrolled, guardian)
		}
	}
	return enrolled, nil
}

func (f *fakeStore) GetGuardian(tx *gorm.DB, guardianId string) (store.Guardian, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, guardian := range f.guardians {
		if guardian.GuardianId == guardianId {
			return guardian, nil
		}
	}
	return store.Guardian{}, store.ErrGuardianNotFound
}

func (f *fakeStore) ListChildrenOfGuardian(tx *gorm.DB, guardianId string) ([]store.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.childrenByGuardian[guardianId], nil
}

func (f *fakeStore) GetActivePickupRule(tx *gorm.DB, childId, guardianId string) (store.PickupRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rule, ok := f.rules[childId+"|"+guardianId]
	if !ok || !rule.Active {
		return store.PickupRule{}, store.ErrPickupRuleNotFound
	}
	return rule, nil
}

func (f *fakeStore) LatestPickupOfChildOnDay(tx *gorm.DB, childId string, t time.Time) (store.PickupRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var latest store.PickupRecord
	found := false
	for _, record := range f.records {
		if record.ChildId != childId {
			continue
		}
		if record.PickupTime.Before(dayStart) || !record.PickupTime.Before(dayEnd) {
			continue
		}
		if !found || record.PickupTime.After(latest.PickupTime) {
			latest = record
			found = true
		}
	}
	if !found {
		return store.PickupRecord{}, store.ErrNoPickupRecord
	}
	return latest, nil
}

func (f *fakeStore) AddPickupRecord(tx *gorm.DB, record store.PickupRecord) (store.PickupRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAddPickupTimes > 0 {
		f.failAddPickupTimes--
		return store.PickupRecord{}, errors.New("deadlock detected")
	}

	f.nextId++
	record.PickupId = fmt.Sprintf("pickup-%d", f.nextId)
	f.records = append(f.records, record)
	return record, nil
}

func (f *fakeStore) pickupCount(childId string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, record := range f.records {
		if record.ChildId == childId {
			count++
		}
	}
	return count
}

func (f *fakeStore) addGuardian(guardian store.Guardian) {
	f.guardians = append(f.guardians, guardian)
}

func (f *fakeStore) linkChild(guardianId string, child store.Child) {
	f.childrenByGuardian[guardianId] = append(f.childrenByGuardian[guardianId], child)
}

func (f *fakeStore) setRule(rule store.PickupRule) {
	f.rules[rule.ChildId+"|"+rule.GuardianId] = rule
}
