package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// TokenIssuer is a mock of model.TokenIssuer.
type TokenIssuer struct {
	mock.Mock
}

func (_m *TokenIssuer) IssueAccess(userID uuid.UUID, roles []model.Role) (model.IssuedToken, error) {
	ret := _m.Called(userID, roles)
	return ret.Get(0).(model.IssuedToken), ret.Error(1)
}

func (_m *TokenIssuer) IssueRefresh(userID uuid.UUID) (model.IssuedToken, error) {
	ret := _m.Called(userID)
	return ret.Get(0).(model.IssuedToken), ret.Error(1)
}

func (_m *TokenIssuer) IssuePasswordReset(email string) (model.IssuedToken, error) {
	ret := _m.Called(email)
	return ret.Get(0).(model.IssuedToken), ret.Error(1)
}

func (_m *TokenIssuer) VerifyAccess(raw string) (model.Principal, error) {
	ret := _m.Called(raw)
	return ret.Get(0).(model.Principal), ret.Error(1)
}

func (_m *TokenIssuer) VerifyRefresh(raw string) (uuid.UUID, error) {
	ret := _m.Called(raw)
	return ret.Get(0).(uuid.UUID), ret.Error(1)
}

func (_m *TokenIssuer) VerifyPasswordReset(raw string) (string, error) {
	ret := _m.Called(raw)
	return ret.String(0), ret.Error(1)
}

// NewTokenIssuer creates a TokenIssuer mock whose expectations are asserted on cleanup.
func NewTokenIssuer(t testingT) *TokenIssuer {
	m := &TokenIssuer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
