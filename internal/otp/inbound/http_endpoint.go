package inbound

import (
	"github.com/shandysiswandi/billease/internal/otp/usecase"
	"github.com/shandysiswandi/billease/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP issue, verify and token redeem handlers.
type HTTPEndpoint struct {
	uc uc
}

// Issue sends a one-time code to the given email.
// @Summary Issue OTP
// @Description Generates a 6-digit code, stores its hash and emails it. Re-issuing replaces the previous code.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body IssueRequest true "Issue payload"
// @Success 200 {object} router.successResponse{data=IssueResponse} "Code sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Mail dispatch failed, retry later"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/otp/issue [post]
func (h *HTTPEndpoint) Issue(r *router.Request) (any, error) {
	var req IssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Purpose:     req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return IssueResponse{
		Success:   true,
		RequestID: resp.RequestID,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// Verify checks a one-time code and returns a verification token.
// @Summary Verify OTP
// @Description Consumes the pending code on success and returns a single-use verification token.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Email verified"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Incorrect code"
// @Failure 404 {object} router.errorResponse "No pending code"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Email:   req.Email,
		Code:    req.Code,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		Success:           true,
		VerificationToken: resp.VerificationToken,
		TokenExpiresAt:    resp.TokenExpiresAt,
	}, nil
}

// Redeem accepts a verification token once for its bound email.
// @Summary Redeem verification token
// @Description Used by the registration step. A token is accepted once, only for the email and purpose it was minted for.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body RedeemRequest true "Redeem payload"
// @Success 200 {object} router.successResponse{data=RedeemResponse} "Token accepted"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Failure 409 {object} router.errorResponse "Token already used"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/otp/token/redeem [post]
func (h *HTTPEndpoint) Redeem(r *router.Request) (any, error) {
	var req RedeemRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Redeem(r.Context(), usecase.RedeemInput{
		Token:   req.VerificationToken,
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return RedeemResponse{
		Success: true,
		Email:   resp.Email,
		Purpose: resp.Purpose,
	}, nil
}
