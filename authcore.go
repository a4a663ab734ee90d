// Package authcore wires the authentication, session, and permission core for
// embedding in a host application. The host owns its transport; this package
// exposes the in-process surface: the auth service, the permission guard, the
// session manager, and the audit log.
package authcore

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	accountrepo "staybook/authcore/internal/account/repository"
	"staybook/authcore/internal/attempt"
	attemptrepo "staybook/authcore/internal/attempt/repository"
	"staybook/authcore/internal/audit"
	auditrepo "staybook/authcore/internal/audit/repository"
	"staybook/authcore/internal/auth"
	"staybook/authcore/internal/authz"
	"staybook/authcore/internal/config"
	"staybook/authcore/internal/db"
	"staybook/authcore/internal/logging"
	"staybook/authcore/internal/mfa"
	mfarepo "staybook/authcore/internal/mfa/repository"
	"staybook/authcore/internal/retention"
	"staybook/authcore/internal/security"
	"staybook/authcore/internal/session"
	sessionrepo "staybook/authcore/internal/session/repository"
	"staybook/authcore/internal/telemetry"
	telemetryotel "staybook/authcore/internal/telemetry/otel"
)

// serviceName identifies this component in exported telemetry.
const serviceName = "authcore"

// Core is the assembled auth core. Fields are the surfaces hosts call.
type Core struct {
	Auth     *auth.Service
	Guard    *authz.Guard
	Sessions *session.Manager
	Attempts *attempt.Tracker
	MFA      *mfa.Service
	AuditLog auditrepo.Repository
	Log      zerolog.Logger

	db        *sql.DB
	redis     *redis.Client
	sweeper   *retention.Sweeper
	providers *telemetryotel.Providers
}

// New builds the core from cfg: storage, telemetry, repositories, and the
// services on top of them. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*Core, error) {
	log := logging.New(cfg.Env)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter(serviceName))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	accounts := accountrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	auditEntries := auditrepo.NewPostgresRepository(conn)
	enrollments := mfarepo.NewPostgresRepository(conn)

	// Attempts live in Redis when configured, Postgres otherwise. Key TTL in
	// Redis must outlast the lockout window or locks would vanish early.
	var (
		attempts    attemptrepo.Repository
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = conn.Close()
			return nil, err
		}
		attempts = attemptrepo.NewRedisRepository(redisClient, 2*cfg.LockoutWindowDuration())
	} else {
		attempts = attemptrepo.NewPostgresRepository(conn)
	}

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		teardown(conn, redisClient)
		return nil, err
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		teardown(conn, redisClient)
		return nil, err
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, 0)

	hashes := security.NewHashPool(security.NewHasher(cfg.BcryptCost), cfg.HashWorkers)
	policy := security.PasswordPolicy{
		MinLength:     cfg.PasswordMinLength,
		RequireUpper:  cfg.PasswordRequireUpper,
		RequireDigit:  cfg.PasswordRequireDigit,
		RequireSymbol: cfg.PasswordRequireSymbol,
	}

	// Every audit entry also goes to the telemetry stream, asynchronously.
	recorder := audit.Tee{
		audit.NewLogger(auditEntries, log),
		telemetry.NewRecorder(telemetryotel.NewEventEmitter(providers.LoggerProvider)),
	}

	tracker := attempt.NewTracker(attempts, cfg.LockoutThreshold, cfg.LockoutWindowDuration())
	manager := session.NewManager(sessions, cfg.SessionTimeoutDuration())

	authSvc, err := auth.NewService(auth.Deps{
		Accounts: accounts,
		Sessions: manager,
		Tracker:  tracker,
		Hashes:   hashes,
		Tokens:   tokens,
		Policy:   policy,
		Recorder: recorder,
		Metrics:  metrics,
		Log:      log,
	})
	if err != nil {
		teardown(conn, redisClient)
		return nil, err
	}

	guard := authz.NewGuard(manager, tokens, recorder, metrics, log)
	mfaSvc := mfa.NewService(enrollments, cfg.JWTIssuer, log)

	sweeper := retention.NewSweeper(attempts, sessions,
		cfg.AttemptRetentionDuration(), cfg.SessionTimeoutDuration(), log)
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		teardown(conn, redisClient)
		return nil, err
	}

	return &Core{
		Auth:      authSvc,
		Guard:     guard,
		Sessions:  manager,
		Attempts:  tracker,
		MFA:       mfaSvc,
		AuditLog:  auditEntries,
		Log:       log,
		db:        conn,
		redis:     redisClient,
		sweeper:   sweeper,
		providers: providers,
	}, nil
}

// Close stops the sweeper, flushes telemetry, and closes storage connections.
func (c *Core) Close(ctx context.Context) error {
	c.sweeper.Stop()
	var lastErr error
	if err := c.providers.Shutdown(ctx); err != nil {
		lastErr = err
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			lastErr = err
		}
	}
	if err := c.db.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

func teardown(conn *sql.DB, redisClient *redis.Client) {
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = conn.Close()
}
