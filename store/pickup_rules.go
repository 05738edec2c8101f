package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/jinzhu/gorm"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrPickupRuleNotFound = errors.New("pickup rule not found")
	ErrInvalidWeekday     = errors.New("weekday is not valid")
)

const (
	DAY_MON = "mon"
	DAY_TUE = "tue"
	DAY_WED = "wed"
	DAY_THU = "thu"
	DAY_FRI = "fri"
	DAY_SAT = "sat"
	DAY_SUN = "sun"
)

var allWeekdays = []string{DAY_MON, DAY_TUE, DAY_WED, DAY_THU, DAY_FRI, DAY_SAT, DAY_SUN}

// Weekdays is a set of weekday tags, stored as a jsonb array.
type Weekdays []string

func (w Weekdays) Value() (driver.Value, error) {
	if w == nil {
		w = Weekdays{}
	}
	return json.Marshal(w)
}

func (w *Weekdays) Scan(src interface{}) error {
	if src == nil {
		*w = Weekdays{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	default:
		return pkgerrors.Errorf("cannot scan weekdays from %T", src)
	}
}

func (w Weekdays) Contains(day string) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

func IsWeekdayValid(day string) bool {
	for _, d := range allWeekdays {
		if d == day {
			return true
		}
	}
	return false
}

// PickupRule restricts on which weekdays a guardian may collect a child.
// There is at most one rule per (child, guardian) pair. The absence of a
// rule means unrestricted access; an active rule with an empty weekday set
// denies every day.
type PickupRule struct {
	RuleId     string `gorm:"primary_key"`
	ChildId    string
	GuardianId string
	Days       Weekdays `gorm:"column:allowed_days" sql:"type:jsonb"`
	Active     bool
	Notes      string
}

// UpsertPickupRule creates the rule for the (child, guardian) pair or
// replaces the existing one, keeping the pair unique.
func (s *Store) UpsertPickupRule(tx *gorm.DB, rule PickupRule) (PickupRule, error) {
	db := s.dbOrTx(tx)

	for _, day := range rule.Days {
		if !IsWeekdayValid(day) {
			return PickupRule{}, ErrInvalidWeekday
		}
	}

	existing := PickupRule{}
	res := db.Where("child_id = ? AND guardian_id = ?", rule.ChildId, rule.GuardianId).First(&existing)
	if res.RecordNotFound() {
		rule.RuleId = s.StringGenerator.GenerateUuid()
		if err := db.Create(&rule).Error; err != nil {
			return PickupRule{}, err
		}
		return rule, nil
	}
	if err := res.Error; err != nil {
		return PickupRule{}, err
	}

	rule.RuleId = existing.RuleId
	if err := db.Save(&rule).Error; err != nil {
		return PickupRule{}, err
	}

	return rule, nil
}

func (s *Store) GetPickupRule(tx *gorm.DB, childId, ruleId string) (PickupRule, error) {
	db := s.dbOrTx(tx)

	rule := PickupRule{}
	res := db.Where("child_id = ? AND rule_id = ?", childId, ruleId).First(&rule)
	if res.RecordNotFound() {
		return PickupRule{}, ErrPickupRuleNotFound
	}
	if err := res.Error; err != nil {
		return PickupRule{}, err
	}

	return rule, nil
}

// GetActivePickupRule returns the active rule for the pair, or
// ErrPickupRuleNotFound when the pair is unrestricted.
func (s *Store) GetActivePickupRule(tx *gorm.DB, childId, guardianId string) (PickupRule, error) {
	db := s.dbOrTx(tx)

	rule := PickupRule{}
	res := db.Where("child_id = ? AND guardian_id = ? AND active = ?", childId, guardianId, true).First(&rule)
	if res.RecordNotFound() {
		return PickupRule{}, ErrPickupRuleNotFound
	}
	if err := res.Error; err != nil {
		return PickupRule{}, err
	}

	return rule, nil
}

func (s *Store) ListPickupRulesOfChild(tx *gorm.DB, childId string) ([]PickupRule, error) {
	db := s.dbOrTx(tx)

	rules := []PickupRule{}
	if err := db.Where("child_id = ?", childId).Order("rule_id asc").Find(&rules).Error; err != nil {
		return nil, err
	}

	return rules, nil
}

func (s *Store) UpdatePickupRule(tx *gorm.DB, rule PickupRule) (PickupRule, error) {
	db := s.dbOrTx(tx)

	for _, day := range rule.Days {
		if !IsWeekdayValid(day) {
			return PickupRule{}, ErrInvalidWeekday
		}
	}

	existing, err := s.GetPickupRule(db, rule.ChildId, rule.RuleId)
	if err != nil {
		return PickupRule{}, err
	}

	if rule.Days != nil {
		existing.Days = rule.Days
	}
	if rule.Notes != "" {
		existing.Notes = rule.Notes
	}
	existing.Active = rule.Active

	if err := db.Save(&existing).Error; err != nil {
		return PickupRule{}, err
	}

	return existing, nil
}

func (s *Store) DeletePickupRule(tx *gorm.DB, childId, ruleId string) error {
	db := s.dbOrTx(tx)

	if _, err := s.GetPickupRule(db, childId, ruleId); err != nil {
		return err
	}

	return db.Where("child_id = ? AND rule_id = ?", childId, ruleId).Delete(&PickupRule{}).Error
}
