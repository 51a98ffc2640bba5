package entity

import "errors"

var (
	ErrInvalidInput = errors.New("otp: invalid input")
	ErrOTPNotFound  = errors.New("otp: no pending code for this email and purpose")
	ErrOTPExpired   = errors.New("otp: code expired")
	ErrOTPMismatch  = errors.New("otp: code mismatch")
	ErrMailDispatch = errors.New("otp: mail dispatch failed")
	ErrStore        = errors.New("otp: store unavailable")
	ErrTokenInvalid = errors.New("otp: verification token invalid")
	ErrTokenUsed    = errors.New("otp: verification token already used")
)
