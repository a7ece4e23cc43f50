// Code generated by MockGen. DO NOT EDIT.
// Source: github.com/vega-lab/vega-trading/internal/indicator (interfaces: Registry)
//
// Generated by this command:
//
//	mockgen -destination=./mock_indicator_registry.go -package=mocks github.com/vega-lab/vega-trading/internal/indicator Registry
//

// Package mocks is a generated GoMock package.
package mocks

import (
	reflect "reflect"

	indicator "github.com/vega-lab/vega-trading/internal/indicator"
	gomock "go.uber.org/mock/gomock"
)

// MockRegistry is a mock of Registry interface.
type MockRegistry struct {
	ctrl     *gomock.Controller
	recorder *MockRegistryMockRecorder
	isgomock struct{}
}

// MockRegistryMockRecorder is the mock recorder for MockRegistry.
type MockRegistryMockRecorder struct {
	mock *MockRegistry
}

// NewMockRegistry creates a new mock instance.
func NewMockRegistry(ctrl *gomock.Controller) *MockRegistry {
	mock := &MockRegistry{ctrl: ctrl}
	mock.recorder = &MockRegistryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRegistry) EXPECT() *MockRegistryMockRecorder {
	return m.recorder
}

// List mocks base method.
func (m *MockRegistry) List() []indicator.IndicatorType {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List")
	ret0, _ := ret[0].([]indicator.IndicatorType)
	return ret0
}

// List indicates an expected call of List.
func (mr *MockRegistryMockRecorder) List() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockRegistry)(nil).List))
}

// New mocks base method.
func (m *MockRegistry) New(name indicator.IndicatorType, param int) (indicator.Indicator, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "New", name, param)
	ret0, _ := ret[0].(indicator.Indicator)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// New indicates an expected call of New.
func (mr *MockRegistryMockRecorder) New(name, param any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "New", reflect.TypeOf((*MockRegistry)(nil).New), name, param)
}

// Register mocks base method.
func (m *MockRegistry) Register(name indicator.IndicatorType, factory indicator.Factory) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Register", name, factory)
	ret0, _ := ret[0].(error)
	return ret0
}

// Register indicates an expected call of Register.
func (mr *MockRegistryMockRecorder) Register(name, factory any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Register", reflect.TypeOf((*MockRegistry)(nil).Register), name, factory)
}
