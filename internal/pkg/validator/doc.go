// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface. V10Validator backs it with
// go-playground/validator v10 and registers the "purpose" and "otpcode" rules
// used by the OTP module.
package validator
