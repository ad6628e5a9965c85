package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"disbroad/internal/config"
	"disbroad/internal/domain"
	"disbroad/internal/observability/logging"
	"disbroad/internal/observability/metrics"
	impl "disbroad/internal/service/impl"
	"disbroad/internal/store"
	httpx "disbroad/internal/transport/http"
	"disbroad/pkg/db"
)

func main() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "disbroad",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	logger.Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	metrics.MustRegister("disbroad")

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(
		&domain.User{},
		&domain.PasswordCredential{},
		&domain.Device{},
		&domain.Token{},
		&domain.VerificationCode{},
		&domain.File{},
	); err != nil {
		logger.Error("auto migrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)

	pw := impl.NewPasswordServiceArgon2id()
	policy := impl.PasswordPolicy{
		MinLength:    cfg.PasswordMinLength,
		MaxLength:    cfg.PasswordMaxLength,
		MinUppercase: cfg.PasswordMinUppercase,
		MinLowercase: cfg.PasswordMinLowercase,
		MinNumber:    cfg.PasswordMinNumber,
		MinSpecial:   cfg.PasswordMinSpecial,
	}
	accounts := impl.NewAccountServiceImpl(st, pw, policy)
	tokens := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		TokenTTL:   cfg.TokenTTL,
		SigningKey: []byte(cfg.SigningKey),
	}, st)
	files := impl.NewFileServiceImpl(st)

	handler := httpx.NewRouter(accounts, tokens, files, httpx.Options{
		CORSOrigins:     cfg.CORSOrigins,
		OwnerPublicKey:  cfg.OwnerPublicKey,
		Log:             logger,
		VerificationTTL: cfg.VerificationTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("disbroad listening", "addr", srv.Addr, "issuer", cfg.Issuer)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
