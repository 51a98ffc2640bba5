package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/clock"
	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/hash"
	"github.com/shandysiswandi/billease/internal/pkg/idempotency"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/jwt"
	"github.com/shandysiswandi/billease/internal/pkg/uid"
	"github.com/shandysiswandi/billease/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultMailTimeout = 10 * time.Second

type OTPVerifiedEvent struct {
	Email      string
	Purpose    string
	VerifiedAt time.Time
}

type repoStore interface {
	Upsert(ctx context.Context, rec entity.OTPRecord) error
	Find(ctx context.Context, email, purpose string) (*entity.OTPRecord, error)
	Consume(ctx context.Context, email, purpose string, id int64) (bool, error)
}

type repoMail interface {
	SendOTP(ctx context.Context, to, code, displayName string) error
}

type repoMessaging interface {
	PublishOTPVerified(ctx context.Context, msg OTPVerifiedEvent) error
}

type Usecase struct {
	repoStore     repoStore
	repoMail      repoMail
	repoMessaging repoMessaging
	ledger        idempotency.Ledger
	validator     validator.Validator
	cfg           config.Config
	hash          hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation

	issued      metric.Int64Counter
	verifyCount metric.Int64Counter
}

type Dependency struct {
	RepoStore     repoStore
	RepoMail      repoMail
	RepoMessaging repoMessaging
	Ledger        idempotency.Ledger
	Validator     validator.Validator
	Config        config.Config
	Hash          hash.Hash
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("otp.usecase")

	issued, err := meter.Int64Counter("otp.issued",
		metric.WithDescription("One-time codes issued and mailed"))
	if err != nil {
		slog.Warn("failed to create otp.issued counter", "error", err)
	}

	verifyCount, err := meter.Int64Counter("otp.verify.result",
		metric.WithDescription("Verification attempts by result"))
	if err != nil {
		slog.Warn("failed to create otp.verify.result counter", "error", err)
	}

	return &Usecase{
		repoStore:     dep.RepoStore,
		repoMail:      dep.RepoMail,
		repoMessaging: dep.RepoMessaging,
		ledger:        dep.Ledger,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hash:          dep.Hash,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		issued:        issued,
		verifyCount:   verifyCount,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) codeTTL() time.Duration {
	if ttl := s.cfg.GetSecond("modules.otp.code_ttl_seconds"); ttl > 0 {
		return ttl
	}
	return entity.DefaultCodeTTL
}

func (s *Usecase) mailTimeout() time.Duration {
	if d := s.cfg.GetSecond("modules.otp.mail_timeout_seconds"); d > 0 {
		return d
	}
	return defaultMailTimeout
}

func (s *Usecase) countIssued(ctx context.Context, purpose string) {
	if s.issued != nil {
		s.issued.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", purpose)))
	}
}

func (s *Usecase) countVerify(ctx context.Context, result string) {
	if s.verifyCount != nil {
		s.verifyCount.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}
