// Code generated by MockGen. DO NOT EDIT.
// Source: github.com/vega-lab/vega-trading/pkg/feed (interfaces: Feed)
//
// Generated by this command:
//
//	mockgen -destination=./mock_feed.go -package=mocks github.com/vega-lab/vega-trading/pkg/feed Feed
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	iter "iter"
	reflect "reflect"

	types "github.com/vega-lab/vega-trading/internal/types"
	gomock "go.uber.org/mock/gomock"
)

// MockFeed is a mock of Feed interface.
type MockFeed struct {
	ctrl     *gomock.Controller
	recorder *MockFeedMockRecorder
	isgomock struct{}
}

// MockFeedMockRecorder is the mock recorder for MockFeed.
type MockFeedMockRecorder struct {
	mock *MockFeed
}

// NewMockFeed creates a new mock instance.
func NewMockFeed(ctrl *gomock.Controller) *MockFeed {
	mock := &MockFeed{ctrl: ctrl}
	mock.recorder = &MockFeedMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockFeed) EXPECT() *MockFeedMockRecorder {
	return m.recorder
}

// Stream mocks base method.
func (m *MockFeed) Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error] {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Stream", ctx, symbols)
	ret0, _ := ret[0].(iter.Seq2[types.Tick, error])
	return ret0
}

// Stream indicates an expected call of Stream.
func (mr *MockFeedMockRecorder) Stream(ctx, symbols any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Stream", reflect.TypeOf((*MockFeed)(nil).Stream), ctx, symbols)
}
