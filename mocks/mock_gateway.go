// Code generated by MockGen. DO NOT EDIT.
// Source: github.com/vega-lab/vega-trading/internal/gateway (interfaces: ExecutionGateway)
//
// Generated by this command:
//
//	mockgen -destination=./mock_gateway.go -package=mocks github.com/vega-lab/vega-trading/internal/gateway ExecutionGateway
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"

	gateway "github.com/vega-lab/vega-trading/internal/gateway"
	types "github.com/vega-lab/vega-trading/internal/types"
	gomock "go.uber.org/mock/gomock"
)

// MockExecutionGateway is a mock of ExecutionGateway interface.
type MockExecutionGateway struct {
	ctrl     *gomock.Controller
	recorder *MockExecutionGatewayMockRecorder
	isgomock struct{}
}

// MockExecutionGatewayMockRecorder is the mock recorder for MockExecutionGateway.
type MockExecutionGatewayMockRecorder struct {
	mock *MockExecutionGateway
}

// NewMockExecutionGateway creates a new mock instance.
func NewMockExecutionGateway(ctrl *gomock.Controller) *MockExecutionGateway {
	mock := &MockExecutionGateway{ctrl: ctrl}
	mock.recorder = &MockExecutionGatewayMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockExecutionGateway) EXPECT() *MockExecutionGatewayMockRecorder {
	return m.recorder
}

// CancelOrder mocks base method.
func (m *MockExecutionGateway) CancelOrder(ctx context.Context, brokerID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CancelOrder", ctx, brokerID)
	ret0, _ := ret[0].(error)
	return ret0
}

// CancelOrder indicates an expected call of CancelOrder.
func (mr *MockExecutionGatewayMockRecorder) CancelOrder(ctx, brokerID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CancelOrder", reflect.TypeOf((*MockExecutionGateway)(nil).CancelOrder), ctx, brokerID)
}

// OnFill mocks base method.
func (m *MockExecutionGateway) OnFill(handler gateway.FillHandler) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnFill", handler)
}

// OnFill indicates an expected call of OnFill.
func (mr *MockExecutionGatewayMockRecorder) OnFill(handler any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnFill", reflect.TypeOf((*MockExecutionGateway)(nil).OnFill), handler)
}

// OnStatus mocks base method.
func (m *MockExecutionGateway) OnStatus(handler gateway.StatusHandler) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnStatus", handler)
}

// OnStatus indicates an expected call of OnStatus.
func (mr *MockExecutionGatewayMockRecorder) OnStatus(handler any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnStatus", reflect.TypeOf((*MockExecutionGateway)(nil).OnStatus), handler)
}

// SubmitOrder mocks base method.
func (m *MockExecutionGateway) SubmitOrder(ctx context.Context, order types.Order) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SubmitOrder", ctx, order)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SubmitOrder indicates an expected call of SubmitOrder.
func (mr *MockExecutionGatewayMockRecorder) SubmitOrder(ctx, order any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SubmitOrder", reflect.TypeOf((*MockExecutionGateway)(nil).SubmitOrder), ctx, order)
}
