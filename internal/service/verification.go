package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

const (
	codeDigits = 6
	// DefaultCodeTTL is how long a verification code stays valid.
	DefaultCodeTTL = 300 * time.Second
)

var codeSpace = big.NewInt(1_000_000)

// VerificationCodes issues and checks one-time email verification codes.
type VerificationCodes struct {
	codes    model.CodeCache
	mailer   model.Mailer
	ttl      time.Duration
	timeout  time.Duration
	logger   *logger.Logger
	generate func() (string, error)
}

func NewVerificationCodes(codes model.CodeCache, mailer model.Mailer, ttl, timeout time.Duration, logger *logger.Logger) *VerificationCodes {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &VerificationCodes{
		codes:    codes,
		mailer:   mailer,
		ttl:      ttl,
		timeout:  orDefault(timeout),
		logger:   logger,
		generate: generateCode,
	}
}

// Issue stores a fresh code for email, replacing any previous one, and mails it.
func (v *VerificationCodes) Issue(ctx context.Context, email string) (string, error) {
	email = model.NormalizeEmail(email)

	code, err := v.generate()
	if err != nil {
		return "", model.NewInternalError("generate verification code", err)
	}

	err = exec(ctx, v.timeout, func(ctx context.Context) error {
		return v.codes.Set(ctx, email, code, v.ttl)
	})
	if err != nil {
		v.logger.Error("Verification: failed to store code",
			"email", email,
			"error", err.Error())
		return "", model.NewInternalError("store verification code", err)
	}

	err = exec(ctx, v.timeout, func(ctx context.Context) error {
		return v.mailer.Send(ctx, model.Mail{
			To:      email,
			Subject: "Email verification",
			Body: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
				code, int(v.ttl/time.Minute)),
		})
	})
	if err != nil {
		v.logger.Error("Verification: failed to mail code",
			"email", email,
			"error", err.Error())
		return "", model.NewInternalError("send verification code", err)
	}

	v.logger.Info("Verification: code issued", "email", email)

	return code, nil
}

// Verify consumes the code of email. A missing, expired, wrong or already
// consumed code yields model.ErrWrongOrExpiredCode.
func (v *VerificationCodes) Verify(ctx context.Context, email, code string) error {
	email = model.NormalizeEmail(email)

	stored, err := call(ctx, v.timeout, func(ctx context.Context) (string, error) {
		return v.codes.Get(ctx, email)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrWrongOrExpiredCode
		}
		v.logger.Error("Verification: failed to load code",
			"email", email,
			"error", err.Error())
		return model.NewInternalError("load verification code", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		v.logger.Info("Verification: wrong code", "email", email)
		return model.ErrWrongOrExpiredCode
	}

	consumed, err := call(ctx, v.timeout, func(ctx context.Context) (bool, error) {
		return v.codes.DeleteIfEquals(ctx, email, code)
	})
	if err != nil {
		v.logger.Error("Verification: failed to consume code",
			"email", email,
			"error", err.Error())
		return model.NewInternalError("consume verification code", err)
	}
	if !consumed {
		return model.ErrWrongOrExpiredCode
	}

	v.logger.Info("Verification: code accepted", "email", email)

	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
