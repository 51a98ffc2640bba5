package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
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
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"
)

const ledgerDriverRedis = "redis"

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	hasher, err := hash.NewFromDriver(a.config.GetString("hash.driver"), hash.FactoryOptions{
		Argon2id: hash.Argon2idParams{
			Memory:        uint32(a.config.GetUint("hash.argon2id.memory_kib")),
			Iterations:    uint32(a.config.GetUint("hash.argon2id.iterations")),
			Parallelism:   uint8(a.config.GetUint16("hash.argon2id.parallelism")),
			MaxConcurrent: a.config.GetInt("hash.argon2id.max_concurrent"),
			Pepper:        a.config.GetString("hash.argon2id.pepper"),
		},
		Bcrypt: hash.BcryptParams{
			Cost:   a.config.GetInt("hash.bcrypt.cost"),
			Pepper: a.config.GetString("hash.bcrypt.pepper"),
		},
	})
	if err != nil {
		slog.Error("failed to init hash", "error", err)
		os.Exit(1)
	}
	a.hash = hasher

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("uid.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	tokenTTL := a.config.GetMinute("modules.otp.token_ttl_minutes")
	if tokenTTL <= 0 {
		tokenTTL = 10 * time.Minute
	}

	verificationJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       tokenTTL,
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = verificationJWT
}

// ping retries fn with a capped fibonacci backoff until it succeeds or the
// attempts run out.
func (a *App) ping(name string, fn func(ctx context.Context) error) error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(5, b)

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := fn(pingCtx); err != nil {
			slog.WarnContext(ctx, "ping failed, retrying", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) storeDriver() string {
	return strings.ToLower(strings.TrimSpace(a.config.GetString("store.driver")))
}

func (a *App) initDatabase() {
	if a.storeDriver() != store.DriverPostgres {
		return
	}

	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := a.ping("postgres", pool.Ping); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	ledgerDriver := strings.TrimSpace(a.config.GetString("ledger.driver"))
	if a.storeDriver() != store.DriverRedis && ledgerDriver != ledgerDriverRedis {
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	if err := a.ping("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initMongo() {
	if a.storeDriver() != store.DriverMongo {
		return
	}

	client, err := mongo.Connect(a.ctx, options.Client().ApplyURI(a.config.GetString("mongo.uri")))
	if err != nil {
		slog.Error("failed to connect mongo", "error", err)
		os.Exit(1)
	}

	if err := a.ping("mongo", func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
		slog.Error("failed to ping mongo", "error", err)
		os.Exit(1)
	}

	a.mongoClient = client
}

func (a *App) initDynamo() {
	if a.storeDriver() != store.DriverDynamo {
		return
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.config.GetString("dynamodb.region")),
	}
	if key := a.config.GetString("dynamodb.access_key_id"); key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, a.config.GetString("dynamodb.secret_access_key"), ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(a.ctx, opts...)
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	var clientOpts []func(*dynamodb.Options)
	if endpoint := a.config.GetString("dynamodb.endpoint"); endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	a.dynamo = dynamodb.NewFromConfig(awsCfg, clientOpts...)
}

func (a *App) initStore() {
	var mongoDB *mongo.Database
	if a.mongoClient != nil {
		mongoDB = a.mongoClient.Database(a.config.GetString("mongo.database"))
	}

	opts := store.Options{
		Retention:   a.config.GetSecond("store.retention_seconds"),
		CodeTTL:     a.config.GetSecond("modules.otp.code_ttl_seconds"),
		Postgres:    a.dbConn,
		Mongo:       mongoDB,
		Dynamo:      a.dynamo,
		DynamoTable: a.config.GetString("dynamodb.table"),
		Instrument:  a.ins,
	}
	if a.cacheConn != nil {
		opts.Redis = a.cacheConn
	}

	s, err := store.NewFromDriver(a.ctx, a.storeDriver(), opts)
	if err != nil {
		slog.Error("failed to init otp store", "error", err, "driver", a.storeDriver())
		os.Exit(1)
	}

	a.store = s
}

func (a *App) initLedger() {
	if strings.TrimSpace(a.config.GetString("ledger.driver")) == ledgerDriverRedis {
		a.ledger = idempotency.NewRedis(a.cacheConn)
		return
	}

	mem := idempotency.NewMemory(a.clock)
	a.ledger = mem

	a.goroutine.Go(a.ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := mem.Sweep(ctx); err != nil {
					slog.ErrorContext(ctx, "failed to sweep token ledger", "error", err)
				}
			}
		}
	})
}

func (a *App) initMail() {
	driver := a.config.GetString("mail.driver")
	client, err := mail.NewFromDriver(driver, mail.Config{
		From: a.config.GetString("mail.from"),
		SMTP: mail.SMTPConfig{
			Host:               a.config.GetString("mail.smtp.host"),
			Port:               a.config.GetInt("mail.smtp.port"),
			Username:           a.config.GetString("mail.smtp.username"),
			Password:           a.config.GetString("mail.smtp.password"),
			InsecureSkipVerify: a.config.GetBool("mail.smtp.insecure_skip_verify"),
		},
		SendGrid: mail.SendGridConfig{
			APIKey: a.config.GetString("mail.sendgrid.api_key"),
			Host:   a.config.GetString("mail.sendgrid.host"),
		},
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.mail = client
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")

	var pubsubOpts []option.ClientOption
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
		pubsubOpts = append(pubsubOpts, option.WithEndpoint(v), option.WithoutAuthentication())
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.write_timeout_seconds")
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOpts,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})
	a.router.GET("/health", a.health)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Mongo",
			fn: func(ctx context.Context) error {
				if a.mongoClient == nil {
					return nil
				}
				return a.mongoClient.Disconnect(ctx)
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}
				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
