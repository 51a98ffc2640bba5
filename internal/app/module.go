package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/billease/internal/otp"
)

func (a *App) initModules() {
	if err := otp.New(otp.Dependency{
		Ctx:        a.ctx,
		Store:      a.store,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Ledger:     a.ledger,
		Mail:       a.mail,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Hash:       a.hash,
		Clock:      a.clock,
		Validator:  a.validator,
		JWT:        a.jwt,
	}); err != nil {
		slog.Error("failed to init module otp", "error", err)
		os.Exit(1)
	}
}
