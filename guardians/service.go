package guardians

import (
	"context"

	"github.com/ClearGateLLC/kidpass/faceapi"
	"github.com/ClearGateLLC/kidpass/shared"
	"github.com/ClearGateLLC/kidpass/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrEmptyGuardian  = errors.New("guardianId cannot be empty")
	ErrNoUsableFace   = errors.New("photo does not contain exactly one usable face")
	ErrMissingName    = errors.New("firstName is mandatory")
	ErrMissingRelType = errors.New("relationshipType is mandatory")
)

type Service interface {
	AddGuardian(ctx context.Context, request GuardianTransport) (store.Guardian, error)
	GetGuardian(ctx context.Context, request GuardianTransport) (store.Guardian, error)
	ListGuardians(ctx context.Context) ([]store.Guardian, error)
	UpdateGuardian(ctx context.Context, request GuardianTransport) (store.Guardian, error)
	DeleteGuardian(ctx context.Context, request GuardianTransport) error
}

type GuardianService struct {
	Store interface {
		Tx() *gorm.DB
		AddGuardian(tx *gorm.DB, guardian store.Guardian) (store.Guardian, error)
		GetGuardian(tx *gorm.DB, guardianId string) (store.Guardian, error)
		ListGuardians(tx *gorm.DB) ([]store.Guardian, error)
		UpdateGuardian(tx *gorm.DB, guardian store.Guardian) (store.Guardian, error)
		SetGuardianEmbedding(tx *gorm.DB, guardianId string, embedding store.Embedding) error
		DeleteGuardian(tx *gorm.DB, guardianId string) error
	} `inject:""`
	FaceApi faceapi.Client `inject:""`
	Logger  *shared.Logger `inject:""`
}

func (s *GuardianService) AddGuardian(ctx context.Context, request GuardianTransport) (store.Guardian, error) {
	if request.FirstName == "" {
		return store.Guardian{}, ErrMissingName
	}
	if request.RelationshipType == "" {
		return store.Guardian{}, ErrMissingRelType
	}

	var embedding store.Embedding
	if request.Photo != "" {
		var err error
		embedding, err = s.extractEmbedding(ctx, request.Photo)
		if err != nil {
			return store.Guardian{}, err
		}
	}

	guardian, err := s.Store.AddGuardian(nil, store.Guardian{
		FirstName:        request.FirstName,
		LastName:         request.LastName,
		Email:            request.Email,
		NationalId:       request.NationalId,
		RelationshipType: request.RelationshipType,
		Note:             request.Note,
		Embedding:        embedding,
	})
	if err != nil {
		return store.Guardian{}, errors.Wrap(err, "failed to add guardian")
	}

	return guardian, nil
}

func (s *GuardianService) GetGuardian(ctx context.Context, request GuardianTransport) (store.Guardian, error) {
	guardian, err := s.Store.GetGuardian(nil, request.Id)
	if err != nil {
		return guardian, errors.Wrap(err, "failed to get guardian")
	}

	return guardian, nil
}

func (s *GuardianService) ListGuardians(ctx context.Context) ([]store.Guardian, error) {
	guardians, err := s.Store.ListGuardians(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list guardians")
	}

	return guardians, nil
}

// UpdateGuardian edits the profile. The stored embedding is replaced only
// when the request carries a new photo.
func (s *GuardianService) UpdateGuardian(ctx context.Context, request GuardianTransport) (store.Guardian, error) {
	if request.Id == "" {
		return store.Guardian{}, ErrEmptyGuardian
	}

	tx := s.Store.Tx()

	guardian, err := s.Store.UpdateGuardian(tx, store.Guardian{
		GuardianId:       request.Id,
		FirstName:        request.FirstName,
		LastName:         request.LastName,
		Email:            request.Email,
		NationalId:       request.NationalId,
		RelationshipType: request.RelationshipType,
		Note:             request.Note,
	})
	if err != nil {
		rollback(tx)
		return store.Guardian{}, errors.Wrap(err, "failed to update guardian")
	}

	if request.Photo != "" {
		embedding, err := s.extractEmbedding(ctx, request.Photo)
		if err != nil {
			rollback(tx)
			return store.Guardian{}, err
		}
		if err := s.Store.SetGuardianEmbedding(tx, request.Id, embedding); err != nil {
			rollback(tx)
			return store.Guardian{}, errors.Wrap(err, "failed to replace embedding")
		}
		guardian.Embedding = embedding
	}

	if err := commit(tx); err != nil {
		return store.Guardian{}, errors.Wrap(err, "failed to commit guardian update")
	}

	return guardian, nil
}

func (s *GuardianService) DeleteGuardian(ctx context.Context, request GuardianTransport) error {
	if err := s.Store.DeleteGuardian(nil, request.Id); err != nil {
		return errors.Wrap(err, "failed to delete guardian")
	}

	return nil
}

// extractEmbedding runs the enrollment photo through the embedding service
// and the same fixed quality gate verification uses. Enrolling a poor
// photo would degrade every later match against it.
func (s *GuardianService) extractEmbedding(ctx context.Context, photoBase64 string) (store.Embedding, error) {
	analysis, err := s.FaceApi.Analyze(ctx, photoBase64)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze enrollment photo")
	}
	if !faceapi.PassesQualityGate(analysis) {
		return nil, ErrNoUsableFace
	}
	return store.Embedding(analysis.Embedding), nil
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

// ServiceMiddleware is a chainable behavior modifier for GuardianService.
type ServiceMiddleware func(GuardianService) GuardianService
