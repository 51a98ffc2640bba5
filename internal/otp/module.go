package otp

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/otp/inbound"
	otpmail "github.com/shandysiswandi/billease/internal/otp/outbound/mail"
	"github.com/shandysiswandi/billease/internal/otp/outbound/mq"
	"github.com/shandysiswandi/billease/internal/otp/outbound/store"
	"github.com/shandysiswandi/billease/internal/otp/usecase"
	"github.com/shandysiswandi/billease/internal/pkg/clock"
	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/goroutine"
	"github.com/shandysiswandi/billease/internal/pkg/hash"
	"github.com/shandysiswandi/billease/internal/pkg/idempotency"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/jwt"
	"github.com/shandysiswandi/billease/internal/pkg/mail"
	"github.com/shandysiswandi/billease/internal/pkg/messaging"
	"github.com/shandysiswandi/billease/internal/pkg/router"
	"github.com/shandysiswandi/billease/internal/pkg/uid"
	"github.com/shandysiswandi/billease/internal/pkg/validator"
)

const defaultSweepInterval = time.Minute

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Store      store.Store                `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Ledger     idempotency.Ledger         `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Hash       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	codeTTL := dep.Config.GetSecond("modules.otp.code_ttl_seconds")
	if codeTTL <= 0 {
		codeTTL = entity.DefaultCodeTTL
	}
	retention, err := store.Retention(dep.Config.GetSecond("store.retention_seconds"), codeTTL)
	if err != nil {
		return err
	}

	repoMail := otpmail.New(dep.Mail, codeTTL, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoStore:     dep.Store,
		RepoMail:      repoMail,
		RepoMessaging: repoMsg,
		Ledger:        dep.Ledger,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Hash:          dep.Hash,
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	startSweeper(dep, retention)

	return nil
}

// startSweeper schedules background reaping for stores without native expiry.
func startSweeper(dep Dependency, retention time.Duration) {
	sw, ok := dep.Store.(store.Sweeper)
	if !ok {
		return
	}

	interval := dep.Config.GetSecond("store.sweep_interval_seconds")
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	job := store.SweepJob{Sweeper: sw, Clock: dep.Clock, Interval: interval, Retention: retention}
	if !dep.Goroutine.Go(dep.Ctx, job.Run) {
		slog.WarnContext(dep.Ctx, "otp store sweeper not started")
		return
	}
	slog.InfoContext(dep.Ctx, "otp store sweeper started", "interval", interval.String(), "retention", retention.String())
}
