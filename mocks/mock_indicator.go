// Code generated by MockGen. DO NOT EDIT.
// Source: github.com/vega-lab/vega-trading/internal/indicator (interfaces: Indicator)
//
// Generated by this command:
//
//	mockgen -destination=./mock_indicator.go -package=mocks github.com/vega-lab/vega-trading/internal/indicator Indicator
//

// Package mocks is a generated GoMock package.
package mocks

import (
	reflect "reflect"

	indicator "github.com/vega-lab/vega-trading/internal/indicator"
	gomock "go.uber.org/mock/gomock"
)

// MockIndicator is a mock of Indicator interface.
type MockIndicator struct {
	ctrl     *gomock.Controller
	recorder *MockIndicatorMockRecorder
	isgomock struct{}
}

// MockIndicatorMockRecorder is the mock recorder for MockIndicator.
type MockIndicatorMockRecorder struct {
	mock *MockIndicator
}

// NewMockIndicator creates a new mock instance.
func NewMockIndicator(ctrl *gomock.Controller) *MockIndicator {
	mock := &MockIndicator{ctrl: ctrl}
	mock.recorder = &MockIndicatorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIndicator) EXPECT() *MockIndicatorMockRecorder {
	return m.recorder
}

// Name mocks base method.
func (m *MockIndicator) Name() indicator.IndicatorType {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Name")
	ret0, _ := ret[0].(indicator.IndicatorType)
	return ret0
}

// Name indicates an expected call of Name.
func (mr *MockIndicatorMockRecorder) Name() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Name", reflect.TypeOf((*MockIndicator)(nil).Name))
}

// Ready mocks base method.
func (m *MockIndicator) Ready() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Ready")
	ret0, _ := ret[0].(bool)
	return ret0
}

// Ready indicates an expected call of Ready.
func (mr *MockIndicatorMockRecorder) Ready() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Ready", reflect.TypeOf((*MockIndicator)(nil).Ready))
}

// Reset mocks base method.
func (m *MockIndicator) Reset() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Reset")
}

// Reset indicates an expected call of Reset.
func (mr *MockIndicatorMockRecorder) Reset() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Reset", reflect.TypeOf((*MockIndicator)(nil).Reset))
}

// Update mocks base method.
func (m *MockIndicator) Update(price float64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Update", price)
}

// Update indicates an expected call of Update.
func (mr *MockIndicatorMockRecorder) Update(price any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockIndicator)(nil).Update), price)
}

// Value mocks base method.
func (m *MockIndicator) Value() (float64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Value")
	ret0, _ := ret[0].(float64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Value indicates an expected call of Value.
func (mr *MockIndicatorMockRecorder) Value() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Value", reflect.TypeOf((*MockIndicator)(nil).Value))
}
