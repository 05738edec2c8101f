package pickuprules

import (
	"context"

	"github.com/ClearGateLLC/kidpass/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrNoGuardian        = errors.New("guardianId is mandatory")
	ErrGuardianNotLinked = errors.New("guardian is not linked to this child")
	ErrNoDays            = errors.New("allowedDays is mandatory")
)

type Service interface {
	UpsertRule(ctx context.Context, request RuleTransport) (store.PickupRule, error)
	ListRulesOfChild(ctx context.Context, childId string) (store.Child, []store.PickupRule, error)
	UpdateRule(ctx context.Context, request RuleTransport) (store.PickupRule, error)
	DeleteRule(ctx context.Context, childId, ruleId string) error
}

type RuleService struct {
	Store interface {
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
		IsGuardianOf(tx *gorm.DB, guardianId, childId string) bool
		UpsertPickupRule(tx *gorm.DB, rule store.PickupRule) (store.PickupRule, error)
		GetPickupRule(tx *gorm.DB, childId, ruleId string) (store.PickupRule, error)
		ListPickupRulesOfChild(tx *gorm.DB, childId string) ([]store.PickupRule, error)
		UpdatePickupRule(tx *gorm.DB, rule store.PickupRule) (store.PickupRule, error)
		DeletePickupRule(tx *gorm.DB, childId, ruleId string) error
	} `inject:""`
}

// UpsertRule creates or replaces the rule for the (child, guardian) pair.
// The guardian must already be linked to the child; a rule for a stranger
// would never be evaluated and only confuse the rule table. allowedDays
// must be present but may be an explicit empty array, which denies every
// day.
func (s *RuleService) UpsertRule(ctx context.Context, request RuleTransport) (store.PickupRule, error) {
	if request.GuardianId == "" {
		return store.PickupRule{}, ErrNoGuardian
	}
	if request.AllowedDays == nil {
		return store.PickupRule{}, ErrNoDays
	}

	if _, err := s.Store.GetChild(nil, request.ChildId); err != nil {
		return store.PickupRule{}, errors.Wrap(err, "failed to get child")
	}
	if !s.Store.IsGuardianOf(nil, request.GuardianId, request.ChildId) {
		return store.PickupRule{}, ErrGuardianNotLinked
	}

	active := true
	if request.Active != nil {
		active = *request.Active
	}

	rule, err := s.Store.UpsertPickupRule(nil, store.PickupRule{
		ChildId:    request.ChildId,
		GuardianId: request.GuardianId,
		Days:       store.Weekdays(request.AllowedDays),
		Active:     active,
		Notes:      request.Notes,
	})
	if err != nil {
		return store.PickupRule{}, errors.Wrap(err, "failed to upsert pickup rule")
	}

	return rule, nil
}

func (s *RuleService) ListRulesOfChild(ctx context.Context, childId string) (store.Child, []store.PickupRule, error) {
	child, err := s.Store.GetChild(nil, childId)
	if err != nil {
		return store.Child{}, nil, errors.Wrap(err, "failed to get child")
	}

	rules, err := s.Store.ListPickupRulesOfChild(nil, childId)
	if err != nil {
		return store.Child{}, nil, errors.Wrap(err, "failed to list pickup rules")
	}

	return child, rules, nil
}

func (s *RuleService) UpdateRule(ctx context.Context, request RuleTransport) (store.PickupRule, error) {
	existing, err := s.Store.GetPickupRule(nil, request.ChildId, request.Id)
	if err != nil {
		return store.PickupRule{}, errors.Wrap(err, "failed to get pickup rule")
	}

	if request.AllowedDays != nil {
		existing.Days = store.Weekdays(request.AllowedDays)
	}
	if request.Notes != "" {
		existing.Notes = request.Notes
	}
	if request.Active != nil {
		existing.Active = *request.Active
	}

	rule, err := s.Store.UpdatePickupRule(nil, existing)
	if err != nil {
		return store.PickupRule{}, errors.Wrap(err, "failed to update pickup rule")
	}

	return rule, nil
}

func (s *RuleService) DeleteRule(ctx context.Context, childId, ruleId string) error {
	if err := s.Store.DeletePickupRule(nil, childId, ruleId); err != nil {
		return errors.Wrap(err, "failed to delete pickup rule")
	}

	return nil
}

// ServiceMiddleware is a chainable behavior modifier for RuleService.
type ServiceMiddleware func(RuleService) RuleService
