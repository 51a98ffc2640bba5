package app

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/billease/internal/otp/outbound/store"
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
	"go.mongodb.org/mongo-driver/mongo"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hash      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn      *pgxpool.Pool
	cacheConn   *redis.Client
	mongoClient *mongo.Client
	dynamo      *dynamodb.Client
	store       store.Store
	ledger      idempotency.Ledger
	mail        mail.Mail
	messaging   messaging.Publisher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMongo()
	app.initDynamo()
	app.initStore()
	app.initLedger()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
