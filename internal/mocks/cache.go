package mocks

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// SessionCache is a mock of model.SessionCache.
type SessionCache struct {
	mock.Mock
}

func (_m *SessionCache) Set(ctx context.Context, userID uuid.UUID, hash string, ttl time.Duration) error {
	ret := _m.Called(ctx, userID, hash, ttl)
	return ret.Error(0)
}

func (_m *SessionCache) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	ret := _m.Called(ctx, userID)
	return ret.String(0), ret.Error(1)
}

func (_m *SessionCache) Delete(ctx context.Context, userID uuid.UUID) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

// CodeCache is a mock of model.CodeCache.
type CodeCache struct {
	mock.Mock
}

func (_m *CodeCache) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	ret := _m.Called(ctx, email, code, ttl)
	return ret.Error(0)
}

func (_m *CodeCache) Get(ctx context.Context, email string) (string, error) {
	ret := _m.Called(ctx, email)
	return ret.String(0), ret.Error(1)
}

func (_m *CodeCache) DeleteIfEquals(ctx context.Context, email, code string) (bool, error) {
	ret := _m.Called(ctx, email, code)
	return ret.Bool(0), ret.Error(1)
}

// Mailer is a mock of model.Mailer.
type Mailer struct {
	mock.Mock
}

func (_m *Mailer) Send(ctx context.Context, mail model.Mail) error {
	ret := _m.Called(ctx, mail)
	return ret.Error(0)
}

// Pinger is a mock of model.Pinger.
type Pinger struct {
	mock.Mock
}

func (_m *Pinger) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// NewSessionCache creates a SessionCache mock whose expectations are asserted on cleanup.
func NewSessionCache(t testingT) *SessionCache {
	m := &SessionCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// NewCodeCache creates a CodeCache mock whose expectations are asserted on cleanup.
func NewCodeCache(t testingT) *CodeCache {
	m := &CodeCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// NewMailer creates a Mailer mock whose expectations are asserted on cleanup.
func NewMailer(t testingT) *Mailer {
	m := &Mailer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ImageStore is a mock of model.ImageStore.
type ImageStore struct {
	mock.Mock
}

func (_m *ImageStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	ret := _m.Called(ctx, key, r, size, contentType)
	return ret.String(0), ret.Error(1)
}

func (_m *ImageStore) Delete(ctx context.Context, key string) error {
	ret := _m.Called(ctx, key)
	return ret.Error(0)
}

// NewImageStore creates an ImageStore mock whose expectations are asserted on cleanup.
func NewImageStore(t testingT) *ImageStore {
	m := &ImageStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func NewPinger(t testingT) *Pinger {
	m := &Pinger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
