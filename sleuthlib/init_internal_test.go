package sleuthlib

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Name() string {
	return m.Called().String(0)
}

func (m *StoreMock) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)

	data, _ := args.Get(0).([]byte)

	return data, args.Error(1)
}

func (m *StoreMock) Put(ctx context.Context, key string, doc []byte) error {
	return m.Called(ctx, key, doc).Error(0)
}

func (m *StoreMock) Close() error {
	return m.Called().Error(0)
}

type memStore struct {
	mutex  sync.Mutex
	docs   map[string][]byte
	closed int
}

func (m *memStore) Name() string {
	return "memory"
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrSegmentNotFound
	}

	return doc, nil
}

func (m *memStore) Put(_ context.Context, key string, doc []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.docs[key] = doc

	return nil
}

func (m *memStore) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed++

	return nil
}

func (m *memStore) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.docs)
}

func newMemStore() *memStore {
	return &memStore{
		docs: map[string][]byte{},
	}
}

type APIFetcherMock struct {
	mock.Mock
}

func (m *APIFetcherMock) FetchAPI(ctx context.Context, addr string) (ResolveResult, error) {
	args := m.Called(ctx, addr)

	return args.Get(0).(ResolveResult), args.Error(1)
}

type ChallengeSolverMock struct {
	mock.Mock
}

func (m *ChallengeSolverMock) Solve(ctx context.Context) (*ChallengeToken, error) {
	args := m.Called(ctx)

	token, _ := args.Get(0).(*ChallengeToken)

	return token, args.Error(1)
}

type ChallengeVerifierMock struct {
	mock.Mock
}

func (m *ChallengeVerifierMock) Verify(ctx context.Context, session SessionID, addr string, token *ChallengeToken) error {
	return m.Called(ctx, session, addr, token).Error(0)
}

type ScrapeFetcherMock struct {
	mock.Mock
}

func (m *ScrapeFetcherMock) FetchScrape(ctx context.Context, addr string, session SessionID) (ResolveResult, error) {
	args := m.Called(ctx, addr, session)

	return args.Get(0).(ResolveResult), args.Error(1)
}

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) CacheError(addr string, err error) {
	m.Called(addr, err)
}

func (m *LoggerMock) AttemptError(addr string, stage Stage, attempt int, err error) {
	m.Called(addr, stage, attempt, err)
}

func (m *LoggerMock) Fallback(addr string, stage Stage, err error) {
	m.Called(addr, stage, err)
}

func (m *LoggerMock) Resolved(addr string, stage Stage) {
	m.Called(addr, stage)
}

func (m *LoggerMock) ResolveFailed(addr string, err error) {
	m.Called(addr, err)
}

func (m *LoggerMock) AllowAll() {
	m.On("CacheError", mock.Anything, mock.Anything).Maybe()
	m.On("AttemptError", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("Fallback", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("Resolved", mock.Anything, mock.Anything).Maybe()
	m.On("ResolveFailed", mock.Anything, mock.Anything).Maybe()
}
