package pickups

import (
	"context"

	"github.com/ClearGateLLC/kidpass/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

// HistoryEntry is one ledger row joined with the picking guardian.
type HistoryEntry struct {
	Record   store.PickupRecord
	Guardian store.Guardian
}

type Service interface {
	ListPickupsOfChild(ctx context.Context, childId string) (store.Child, []HistoryEntry, error)
}

type HistoryService struct {
	Store interface {
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
		GetGuardian(tx *gorm.DB, guardianId string) (store.Guardian, error)
		ListPickupsOfChild(tx *gorm.DB, childId string) ([]store.PickupRecord, error)
	} `inject:""`
}

// ListPickupsOfChild returns the child's ledger newest first. Records whose
// guardian was deleted since keep their denormalized relationship type and
// an empty guardian summary.
func (s *HistoryService) ListPickupsOfChild(ctx context.Context, childId string) (store.Child, []HistoryEntry, error) {
	child, err := s.Store.GetChild(nil, childId)
	if err != nil {
		return store.Child{}, nil, errors.Wrap(err, "failed to get child")
	}

	records, err := s.Store.ListPickupsOfChild(nil, childId)
	if err != nil {
		return store.Child{}, nil, errors.Wrap(err, "failed to list pickups")
	}

	entries := []HistoryEntry{}
	guardiansById := map[string]store.Guardian{}
	for _, record := range records {
		guardian, ok := guardiansById[record.GuardianId]
		if !ok {
			guardian, err = s.Store.GetGuardian(nil, record.GuardianId)
			if err != nil && errors.Cause(err) != store.ErrGuardianNotFound {
				return store.Child{}, nil, errors.Wrap(err, "failed to get guardian")
			}
			guardiansById[record.GuardianId] = guardian
		}
		entries = append(entries, HistoryEntry{Record: record, Guardian: guardian})
	}

	return child, entries, nil
}

// ServiceMiddleware is a chainable behavior modifier for HistoryService.
type ServiceMiddleware func(HistoryService) HistoryService
