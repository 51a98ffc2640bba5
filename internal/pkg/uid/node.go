package uid

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"os"
	"strings"
)

// ErrStableNodeIdentityUnavailable indicates no stable node identity is available.
var ErrStableNodeIdentityUnavailable = errors.New("uid: cannot determine stable node identity (machine-id/hostname unavailable)")

var (
	machineIDPath = "/etc/machine-id"
	hostname      = os.Hostname
)

// machineIDOrHostname returns a stable identity string or an error.
func machineIDOrHostname() (string, error) {
	if b, err := os.ReadFile(machineIDPath); err == nil {
		s := strings.TrimSpace(string(b))
		if s != "" {
			return s, nil
		}
	}

	if h, err := hostname(); err == nil {
		h = strings.TrimSpace(h)
		if h != "" {
			return h, nil
		}
	}

	return "", ErrStableNodeIdentityUnavailable
}

// nodeNumber folds an identity string into [0, max).
func nodeNumber(identity string, max int64) int64 {
	sum := sha256.Sum256([]byte(identity))
	return int64(binary.BigEndian.Uint64(sum[:8]) % uint64(max))
}
