package inbound

import "time"

type IssueRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Purpose     string `json:"purpose"`
}

type IssueResponse struct {
	Success   bool      `json:"success"`
	RequestID string    `json:"requestId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (IssueResponse) Message() string {
	return "Verification code sent. Please check your email."
}

type VerifyRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

type VerifyResponse struct {
	Success           bool      `json:"success"`
	VerificationToken string    `json:"verificationToken,omitempty"`
	TokenExpiresAt    time.Time `json:"tokenExpiresAt"`
}

func (VerifyResponse) Message() string {
	return "Email verified."
}

type RedeemRequest struct {
	VerificationToken string `json:"verificationToken"`
	Email             string `json:"email"`
	Purpose           string `json:"purpose"`
}

type RedeemResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

func (RedeemResponse) Message() string {
	return "Verification token accepted."
}
