package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	api "github.com/examlab/examlab/internal/api/http"
	"github.com/examlab/examlab/internal/auth"
	"github.com/examlab/examlab/internal/config"
	"github.com/examlab/examlab/internal/db"
	"github.com/examlab/examlab/internal/logging"
	"github.com/examlab/examlab/internal/metrics"
	"github.com/examlab/examlab/internal/moodle"
	"github.com/examlab/examlab/internal/quiz"
	"github.com/examlab/examlab/internal/rbac"
	"github.com/examlab/examlab/internal/security"
	"github.com/examlab/examlab/internal/storage"
	syncx "github.com/examlab/examlab/internal/sync"
)

func main() {
	cfg := config.Load()
	log := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{
		Builder: &moodle.Builder{
			WWWRoot:         cfg.OriginalWWWRoot,
			ModuleIDStart:   cfg.ModuleIDStart,
			DefaultCategory: cfg.CategoryDefault,
		},
		Metrics: metrics.New(),
		Log:     log,
	}

	// --- DB ---
	if cfg.DBDriver == "memory" {
		deps.Quizzes = quiz.NewMemoryStore()
	} else {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			log.Fatal("db open failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
		}
		defer dbh.Close()
		deps.Quizzes = quiz.NewSQLStore(dbh, cfg.DBDriver)
		deps.Events = syncx.NewEventRepo(dbh)
		deps.Ready = dbh.PingContext
	}

	// --- Blob store ---
	bs, err := openBlobStore(ctx, cfg)
	if err != nil {
		log.Fatal("blob store", zap.String("driver", cfg.BlobDriver), zap.Error(err))
	}
	deps.Blobs = bs

	// --- Auth (local admin account) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, auth.Account{
		Username: cfg.AdminUser,
		Hash:     cfg.AdminPassHash,
		Role:     rbac.RoleAdmin,
	})
	if cfg.AdminPassHash == "" {
		log.Warn("ADMIN_PASS_HASH is empty; /auth/login is disabled")
	}

	h := api.NewRouter(deps, api.Options{
		Auth:        authSvc,
		Limiter:     security.NewRateLimiter(cfg.ExportRatePerMin, time.Minute),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver),
		zap.String("blob", cfg.BlobDriver),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
}

func openBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "minio":
		return storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			Prefix:    strings.TrimPrefix(cfg.BlobBasePath, "./"),
		})
	default:
		return storage.NewFSStore(cfg.BlobBasePath)
	}
}
