package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/billease/internal/app"
)

// @title           BillEase OTP API
// @version         1.0
// @description     BillEase issues and verifies one-time email codes for registration and exchanges them for short-lived verification tokens.
// @termsOfService  https://billease.ph/terms
// @contact.name    Contact Support
// @contact.url     https://billease.ph/contact
// @contact.email   support@billease.ph
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @server          https://localhost:8080
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
