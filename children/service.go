package children

import (
	"context"
	"time"

	"github.com/ClearGateLLC/kidpass/store"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrEmptyChild    = errors.New("childId cannot be empty")
	ErrMissingName   = errors.New("firstName is mandatory")
	ErrNoGuardian    = errors.New("guardianId is mandatory")
	ErrSetGuardian   = errors.New("failed to link guardian")
	ErrInvalidStatus = errors.New("status must be active or inactive")
)

type Service interface {
	AddChild(ctx context.Context, request ChildTransport) (store.Child, error)
	GetChild(ctx context.Context, request ChildTransport) (store.Child, []store.Guardian, error)
	ListChildren(ctx context.Context) ([]store.Child, error)
	UpdateChild(ctx context.Context, request ChildTransport) (store.Child, error)
	DeleteChild(ctx context.Context, request ChildTransport) error
	LinkGuardian(ctx context.Context, childId, guardianId string) error
	UnlinkGuardian(ctx context.Context, childId, guardianId string) error
}

type ChildService struct {
	Store interface {
		Tx() *gorm.DB
		AddChild(tx *gorm.DB, child store.Child) (store.Child, error)
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
		ListChildren(tx *gorm.DB) ([]store.Child, error)
		UpdateChild(tx *gorm.DB, child store.Child) (store.Child, error)
		DeleteChild(tx *gorm.DB, childId string) error
		GetGuardian(tx *gorm.DB, guardianId string) (store.Guardian, error)
		SetGuardianOf(tx *gorm.DB, link store.GuardianOf) error
		RemoveGuardianOf(tx *gorm.DB, link store.GuardianOf) error
		ListGuardiansOfChild(tx *gorm.DB, childId string) ([]store.Guardian, error)
	} `inject:""`
}

// AddChild creates the child and links the initial guardian in one
// transaction: a child record without at least one guardian is unusable at
// the terminal.
func (c *ChildService) AddChild(ctx context.Context, request ChildTransport) (store.Child, error) {
	if request.FirstName == "" {
		return store.Child{}, ErrMissingName
	}
	if request.GuardianId == "" {
		return store.Child{}, ErrNoGuardian
	}

	var birthDate time.Time
	if request.BirthDate != "" {
		var err error
		birthDate, err = dateparse.ParseIn(request.BirthDate, time.UTC)
		if err != nil {
			return store.Child{}, err
		}
	}

	if request.Status != "" && !isStatusValid(request.Status) {
		return store.Child{}, ErrInvalidStatus
	}

	tx := c.Store.Tx()

	child, err := c.Store.AddChild(tx, store.Child{
		FirstName:  request.FirstName,
		LastName:   request.LastName,
		Grade:      request.Grade,
		NationalId: request.NationalId,
		BirthDate:  birthDate,
		Status:     request.Status,
	})
	if err != nil {
		rollback(tx)
		return store.Child{}, errors.Wrap(err, "failed to add child")
	}

	if err := c.Store.SetGuardianOf(tx, store.GuardianOf{GuardianId: request.GuardianId, ChildId: child.ChildId}); err != nil {
		rollback(tx)
		return store.Child{}, errors.Wrap(ErrSetGuardian, err.Error())
	}

	if err := commit(tx); err != nil {
		return store.Child{}, errors.Wrap(err, "failed to commit child creation")
	}
	return child, nil
}

func (c *ChildService) GetChild(ctx context.Context, request ChildTransport) (store.Child, []store.Guardian, error) {
	child, err := c.Store.GetChild(nil, request.Id)
	if err != nil {
		return store.Child{}, nil, errors.Wrap(err, "failed to get child")
	}

	guardians, err := c.Store.ListGuardiansOfChild(nil, request.Id)
	if err != nil {
		return store.Child{}, nil, errors.Wrap(err, "failed to list guardians of child")
	}

	return child, guardians, nil
}

func (c *ChildService) ListChildren(ctx context.Context) ([]store.Child, error) {
	children, err := c.Store.ListChildren(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list children")
	}

	return children, nil
}

func (c *ChildService) UpdateChild(ctx context.Context, request ChildTransport) (store.Child, error) {
	if request.Id == "" {
		return store.Child{}, ErrEmptyChild
	}
	if request.Status != "" && !isStatusValid(request.Status) {
		return store.Child{}, ErrInvalidStatus
	}

	var birthDate time.Time
	if request.BirthDate != "" {
		var err error
		birthDate, err = dateparse.ParseIn(request.BirthDate, time.UTC)
		if err != nil {
			return store.Child{}, err
		}
	}

	child, err := c.Store.UpdateChild(nil, store.Child{
		ChildId:    request.Id,
		FirstName:  request.FirstName,
		LastName:   request.LastName,
		Grade:      request.Grade,
		NationalId: request.NationalId,
		BirthDate:  birthDate,
		Status:     request.Status,
	})
	if err != nil {
		return store.Child{}, errors.Wrap(err, "failed to update child")
	}

	return child, nil
}

func (c *ChildService) DeleteChild(ctx context.Context, request ChildTransport) error {
	if err := c.Store.DeleteChild(nil, request.Id); err != nil {
		return errors.Wrap(err, "failed to delete child")
	}

	return nil
}

func (c *ChildService) LinkGuardian(ctx context.Context, childId, guardianId string) error {
	if _, err := c.Store.GetChild(nil, childId); err != nil {
		return errors.Wrap(err, "failed to get child")
	}
	if _, err := c.Store.GetGuardian(nil, guardianId); err != nil {
		return errors.Wrap(err, "failed to get guardian")
	}

	if err := c.Store.SetGuardianOf(nil, store.GuardianOf{GuardianId: guardianId, ChildId: childId}); err != nil {
		return errors.Wrap(ErrSetGuardian, err.Error())
	}

	return nil
}

func (c *ChildService) UnlinkGuardian(ctx context.Context, childId, guardianId string) error {
	if err := c.Store.RemoveGuardianOf(nil, store.GuardianOf{GuardianId: guardianId, ChildId: childId}); err != nil {
		return errors.Wrap(err, "failed to unlink guardian")
	}

	return nil
}

func isStatusValid(status string) bool {
	return status == store.CHILD_STATUS_ACTIVE || status == store.CHILD_STATUS_INACTIVE
}

// Tx may be nil when the store is not transactional (unit suites); the
// store treats a nil tx as its base handle.
func rollback(tx *gorm.DB) {
	if tx != nil {
		tx.Rollback()
	}
}

func commit(tx *gorm.DB) error {
	if tx == nil {
		return nil
	}
	return tx.Commit().Error
}

// ServiceMiddleware is a chainable behavior modifier for ChildService.
type ServiceMiddleware func(ChildService) ChildService
