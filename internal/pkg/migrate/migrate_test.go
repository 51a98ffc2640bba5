package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestRun_Validation(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000001_init.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/000001_init.down.sql": {Data: []byte("SELECT 1;")},
	}

	assert.ErrorIs(t, Run(fsys, "migrations", "", DirectionUp), ErrDSNRequired)
	assert.ErrorIs(t, Run(fsys, "migrations", "postgres://x", "sideways"), ErrInvalidDirection)

	err := Run(fstest.MapFS{}, "migrations", "postgres://x", DirectionUp)
	assert.ErrorContains(t, err, "migrate source")
}
