package handler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/service"
)

// authServiceMock is a mock of the account flow facade used by the HTTP handlers.
type authServiceMock struct {
	mock.Mock
}

func (_m *authServiceMock) Signup(ctx context.Context, params service.SignupParams) (model.User, error) {
	ret := _m.Called(ctx, params)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *authServiceMock) SignIn(ctx context.Context, user model.User) (model.TokenPair, error) {
	ret := _m.Called(ctx, user)
	return ret.Get(0).(model.TokenPair), ret.Error(1)
}

func (_m *authServiceMock) Refresh(ctx context.Context, user model.User) (model.IssuedToken, error) {
	ret := _m.Called(ctx, user)
	return ret.Get(0).(model.IssuedToken), ret.Error(1)
}

func (_m *authServiceMock) SignOut(ctx context.Context, userID uuid.UUID) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

func (_m *authServiceMock) SendEmailVerification(ctx context.Context, email string) error {
	ret := _m.Called(ctx, email)
	return ret.Error(0)
}

func (_m *authServiceMock) VerifyEmail(ctx context.Context, email, code string) error {
	ret := _m.Called(ctx, email, code)
	return ret.Error(0)
}

func (_m *authServiceMock) ForgotPassword(ctx context.Context, email string) error {
	ret := _m.Called(ctx, email)
	return ret.Error(0)
}

func (_m *authServiceMock) ResetPassword(ctx context.Context, params service.ResetPasswordParams) error {
	ret := _m.Called(ctx, params)
	return ret.Error(0)
}

func (_m *authServiceMock) Me(ctx context.Context, userID uuid.UUID) (model.User, error) {
	ret := _m.Called(ctx, userID)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *authServiceMock) ListUsers(ctx context.Context) ([]model.User, error) {
	ret := _m.Called(ctx)
	var r0 []model.User
	if v := ret.Get(0); v != nil {
		r0 = v.([]model.User)
	}
	return r0, ret.Error(1)
}

// newAuthServiceMock creates a mock whose expectations are asserted on cleanup.
func newAuthServiceMock(t *testing.T) *authServiceMock {
	m := &authServiceMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
