package children_test

import (
	"github.com/ClearGateLLC/kidpass/store"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Tx() *gorm.DB {
	return nil
}

func (m *mockStore) AddChild(tx *gorm.DB, child store.Child) (store.Child, error) {
	args := m.Called(tx, child)
	return args.Get(0).(store.Child), args.Error(1)
}

func (m *mockStore) GetChild(tx *gorm.DB, childId string) (store.Child, error) {
	args := m.Called(tx, childId)
	return args.Get(0).(store.Child), args.Error(1)
}

func (m *mockStore) ListChildren(tx *gorm.DB) ([]store.Child, error) {
	args := m.Called(tx)
	return args.Get(0).([]store.Child), args.Error(1)
}

func (m *mockStore) UpdateChild(tx *gorm.DB, child store.Child) (store.Child, error) {
	args := m.Called(tx, child)
	return args.Get(0).(store.Child), args.Error(1)
}

func (m *mockStore) DeleteChild(tx *gorm.DB, childId string) error {
	args := m.Called(tx, childId)
	return args.Error(0)
}

func (m *mockStore) GetGuardian(tx *gorm.DB, guardianId string) (store.Guardian, error) {
	args := m.Called(tx, guardianId)
	return args.Get(0).(store.Guardian), args.Error(1)
}

func (m *mockStore) SetGuardianOf(tx *gorm.DB, link store.GuardianOf) error {
	args := m.Called(tx, link)
	return args.Error(0)
}

func (m *mockStore) RemoveGuardianOf(tx *gorm.DB, link store.GuardianOf) error {
	args := m.Called(tx, link)
	return args.Error(0)
}

func (m *mockStore) ListGuardiansOfChild(tx *gorm.DB, childId string) ([]store.Guardian, error) {
	args := m.Called(tx, childId)
	return args.Get(0).([]store.Guardian), args.Error(1)
}
