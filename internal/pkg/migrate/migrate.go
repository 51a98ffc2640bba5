// Package migrate applies embedded SQL migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	// DirectionUp applies all pending migrations.
	DirectionUp = "up"
	// DirectionDown rolls back all applied migrations.
	DirectionDown = "down"
)

var (
	// ErrDSNRequired is returned when no database URL is given.
	ErrDSNRequired = errors.New("migrate: database dsn is required")
	// ErrInvalidDirection is returned for a direction other than up or down.
	ErrInvalidDirection = errors.New("migrate: direction must be up or down")
)

// Run applies the migrations found in dir of fsys against dsn. Being already
// at the target version is not an error.
func Run(fsys fs.FS, dir, dsn, direction string) error {
	if strings.TrimSpace(dsn) == "" {
		return ErrDSNRequired
	}
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("%w, got %q", ErrInvalidDirection, direction)
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == DirectionUp {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
