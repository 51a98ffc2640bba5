package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"Email":             "email",
		"DisplayName":       "display_name",
		"VerificationToken": "verification_token",
		"RequestID":         "request_id",
		"HTTPServer":        "http_server",
		"Code6Digit":        "code6_digit",
	}

	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
