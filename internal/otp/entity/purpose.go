package entity

import "strings"

// PurposeRegistration is the default purpose of an OTP.
const PurposeRegistration = "registration"

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// NormalizePurpose trims and lowercases a purpose, falling back to registration.
func NormalizePurpose(purpose string) string {
	p := strings.TrimSpace(strings.ToLower(purpose))
	if p == "" {
		return PurposeRegistration
	}
	return p
}
