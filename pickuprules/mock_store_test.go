package pickuprules_test

import (
	"github.com/ClearGateLLC/kidpass/store"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetChild(tx *gorm.DB, childId string) (store.Child, error) {
	args := m.Called(tx, childId)
	return args.Get(0).(store.Child), args.Error(1)
}

func (m *mockStore) IsGuardianOf(tx *gorm.DB, guardianId, childId string) bool {
	args := m.Called(tx, guardianId, childId)
	return args.Bool(0)
}

func (m *mockStore) UpsertPickupRule(tx *gorm.DB, rule store.PickupRule) (store.PickupRule, error) {
	args := m.Called(tx, rule)
	return args.Get(0).(store.PickupRule), args.Error(1)
}

func (m *mockStore) GetPickupRule(tx *gorm.DB, childId, ruleId string) (store.PickupRule, error) {
	args := m.Called(tx, childId, ruleId)
	return args.Get(0).(store.PickupRule), args.Error(1)
}

func (m *mockStore) ListPickupRulesOfChild(tx *gorm.DB, childId string) ([]store.PickupRule, error) {
	args := m.Called(tx, childId)
	return args.Get(0).([]store.PickupRule), args.Error(1)
}

func (m *mockStore) UpdatePickupRule(tx *gorm.DB, rule store.PickupRule) (store.PickupRule, error) {
	args := m.Called(tx, rule)
	return args.Get(0).(store.PickupRule), args.Error(1)
}

func (m *mockStore) DeletePickupRule(tx *gorm.DB, childId, ruleId string) error {
	args := m.Called(tx, childId, ruleId)
	return args.Error(0)
}
