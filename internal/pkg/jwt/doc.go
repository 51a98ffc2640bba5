// Package jwt issues and verifies short-lived verification tokens as JSON Web
// Tokens signed with HS512.
//
// A token binds an email address and an OTP purpose. Single use is enforced by
// the caller (see the idempotency ledger), keyed by the token ID.
package jwt
