// Code generated by MockGen. DO NOT EDIT.
// Source: github.com/vega-lab/vega-trading/internal/strategy (interfaces: Strategy)
//
// Generated by this command:
//
//	mockgen -destination=./mock_strategy.go -package=mocks github.com/vega-lab/vega-trading/internal/strategy Strategy
//

// Package mocks is a generated GoMock package.
package mocks

import (
	reflect "reflect"

	optional "github.com/moznion/go-optional"
	strategy "github.com/vega-lab/vega-trading/internal/strategy"
	types "github.com/vega-lab/vega-trading/internal/types"
	gomock "go.uber.org/mock/gomock"
)

// MockStrategy is a mock of Strategy interface.
type MockStrategy struct {
	ctrl     *gomock.Controller
	recorder *MockStrategyMockRecorder
	isgomock struct{}
}

// MockStrategyMockRecorder is the mock recorder for MockStrategy.
type MockStrategyMockRecorder struct {
	mock *MockStrategy
}

// NewMockStrategy creates a new mock instance.
func NewMockStrategy(ctrl *gomock.Controller) *MockStrategy {
	mock := &MockStrategy{ctrl: ctrl}
	mock.recorder = &MockStrategyMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStrategy) EXPECT() *MockStrategyMockRecorder {
	return m.recorder
}

// APIVersion mocks base method.
func (m *MockStrategy) APIVersion() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "APIVersion")
	ret0, _ := ret[0].(string)
	return ret0
}

// APIVersion indicates an expected call of APIVersion.
func (mr *MockStrategyMockRecorder) APIVersion() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "APIVersion", reflect.TypeOf((*MockStrategy)(nil).APIVersion))
}

// Evaluate mocks base method.
func (m *MockStrategy) Evaluate(view strategy.MarketView) (optional.Option[types.Signal], error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Evaluate", view)
	ret0, _ := ret[0].(optional.Option[types.Signal])
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Evaluate indicates an expected call of Evaluate.
func (mr *MockStrategyMockRecorder) Evaluate(view any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Evaluate", reflect.TypeOf((*MockStrategy)(nil).Evaluate), view)
}

// Name mocks base method.
func (m *MockStrategy) Name() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Name")
	ret0, _ := ret[0].(string)
	return ret0
}

// Name indicates an expected call of Name.
func (mr *MockStrategyMockRecorder) Name() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Name", reflect.TypeOf((*MockStrategy)(nil).Name))
}
