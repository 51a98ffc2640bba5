package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
)

const tokenLedgerPrefix = "otp_token:"

type RedeemInput struct {
	Token   string `validate:"required"`
	Email   string `validate:"required,email,max=254"`
	Purpose string `validate:"required,purpose"`
}

type RedeemOutput struct {
	Email   string
	Purpose string
}

func errTokenInvalid() error {
	return goerror.NewBusinessErr(entity.ErrTokenInvalid, "Invalid or expired verification token", goerror.CodeUnauthorized)
}

// Redeem accepts a verification token once, for the email and purpose it
// was minted for.
func (s *Usecase) Redeem(ctx context.Context, in RedeemInput) (*RedeemOutput, error) {
	ctx, span := s.startSpan(ctx, "Redeem")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)
	in.Purpose = entity.NormalizePurpose(in.Purpose)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(errors.Join(entity.ErrInvalidInput, err))
	}

	claims, err := s.jwt.Verify(in.Token)
	if err != nil {
		slog.WarnContext(ctx, "verification token rejected", "email", in.Email, "error", err)
		return nil, errTokenInvalid()
	}

	if claims.Email != in.Email || claims.Purpose != in.Purpose {
		slog.WarnContext(ctx, "verification token bound to another subject", "email", in.Email, "purpose", in.Purpose)
		return nil, errTokenInvalid()
	}

	remaining := claims.ExpiresAt.Sub(s.clock.Now())
	ok, err := s.ledger.Claim(ctx, tokenLedgerPrefix+claims.ID, remaining)
	if err != nil {
		slog.ErrorContext(ctx, "failed to claim verification token", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		return nil, goerror.NewBusinessErr(entity.ErrTokenUsed, "Verification token already used", goerror.CodeConflict)
	}

	return &RedeemOutput{Email: claims.Email, Purpose: claims.Purpose}, nil
}
