package event

import "time"

const OTPVerifiedDestination string = "otp_verified"

type OTPVerifiedMessage struct {
	Email      string    `json:"email"`
	Purpose    string    `json:"purpose"`
	VerifiedAt time.Time `json:"verified_at"`
}
