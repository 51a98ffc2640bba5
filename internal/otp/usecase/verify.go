package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
)

type VerifyInput struct {
	Email   string `validate:"required,email,max=254"`
	Code    string `validate:"required,otpcode"`
	Purpose string `validate:"required,purpose"`
}

type VerifyOutput struct {
	VerificationToken string
	TokenExpiresAt    time.Time
}

func errNotFound() error {
	return goerror.NewBusinessErr(entity.ErrOTPNotFound, "No pending code, please request a new one", goerror.CodeNotFound)
}

// Verify checks the submitted code and, on success, consumes the record and
// returns a single-use verification token. A mismatch leaves the record in
// place so the user may retry until it expires.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)
	in.Purpose = entity.NormalizePurpose(in.Purpose)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(errors.Join(entity.ErrInvalidInput, err))
	}

	rec, err := s.repoStore.Find(ctx, in.Email, in.Purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		s.countVerify(ctx, "not_found")
		return nil, errNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find otp record", "email", in.Email, "purpose", in.Purpose, "error", err)
		return nil, goerror.NewServer(fmt.Errorf("%w: %w", entity.ErrStore, err))
	}

	if rec.IsExpired(s.clock.Now(), s.codeTTL()) {
		if _, err := s.repoStore.Consume(ctx, in.Email, in.Purpose, rec.ID); err != nil {
			slog.WarnContext(ctx, "failed to repo delete expired otp record", "email", in.Email, "purpose", in.Purpose, "error", err)
		}
		s.countVerify(ctx, "expired")
		return nil, goerror.NewBusinessErr(entity.ErrOTPExpired, "Code expired, please request a new one", goerror.CodeExpired)
	}

	if !s.hash.Verify(rec.CodeHash, in.Code) {
		s.countVerify(ctx, "mismatch")
		return nil, goerror.NewBusinessErr(entity.ErrOTPMismatch, "Incorrect code", goerror.CodeUnauthorized)
	}

	token, err := s.jwt.Generate(in.Email, in.Purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification token", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	consumed, err := s.repoStore.Consume(ctx, in.Email, in.Purpose, rec.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume otp record", "email", in.Email, "purpose", in.Purpose, "error", err)
		return nil, goerror.NewServer(fmt.Errorf("%w: %w", entity.ErrStore, err))
	}
	if !consumed {
		s.countVerify(ctx, "not_found")
		return nil, errNotFound()
	}

	s.countVerify(ctx, "verified")

	if err := s.repoMessaging.PublishOTPVerified(ctx, OTPVerifiedEvent{
		Email:      in.Email,
		Purpose:    in.Purpose,
		VerifiedAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp verified", "email", in.Email, "purpose", in.Purpose, "error", err)
	}

	return &VerifyOutput{
		VerificationToken: token.Value,
		TokenExpiresAt:    token.ExpiresAt,
	}, nil
}
