package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
)

type IssueInput struct {
	Email       string `validate:"required,email,max=254"`
	DisplayName string `validate:"omitempty,max=100"`
	Purpose     string `validate:"required,purpose"`
}

type IssueOutput struct {
	RequestID string
	ExpiresAt time.Time
}

// Issue sends a fresh code for (email, purpose), replacing any pending one.
// The code itself is never returned.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)
	in.Purpose = entity.NormalizePurpose(in.Purpose)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(errors.Join(entity.ErrInvalidInput, err))
	}

	code, err := generateCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hash.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.OTPRecord{
		ID:        s.uid.Generate(),
		Email:     in.Email,
		Purpose:   in.Purpose,
		CodeHash:  string(codeHash),
		CreatedAt: s.clock.Now(),
	}

	if err := s.repoStore.Upsert(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert otp record", "email", in.Email, "purpose", in.Purpose, "error", err)
		return nil, goerror.NewServer(fmt.Errorf("%w: %w", entity.ErrStore, err))
	}

	mailCtx, cancel := context.WithTimeout(ctx, s.mailTimeout())
	defer cancel()

	if err := s.repoMail.SendOTP(mailCtx, in.Email, code, in.DisplayName); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", in.Email, "purpose", in.Purpose, "error", err)
		return nil, goerror.NewUnavailable(fmt.Errorf("%w: %w", entity.ErrMailDispatch, err),
			"Failed to send verification code, please try again")
	}

	s.countIssued(ctx, in.Purpose)

	return &IssueOutput{
		RequestID: strconv.FormatInt(rec.ID, 10),
		ExpiresAt: rec.ExpiresAt(s.codeTTL()),
	}, nil
}
