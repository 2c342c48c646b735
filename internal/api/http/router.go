package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/examlab/examlab/internal/auth"
	"github.com/examlab/examlab/internal/metrics"
	"github.com/examlab/examlab/internal/moodle"
	"github.com/examlab/examlab/internal/quiz"
	"github.com/examlab/examlab/internal/rbac"
	"github.com/examlab/examlab/internal/security"
	"github.com/examlab/examlab/internal/storage"
	syncx "github.com/examlab/examlab/internal/sync"
)

// Auditor records exports. *syncx.EventRepo satisfies it.
type Auditor interface {
	AppendExport(ctx context.Context, typ, key string, d syncx.ExportData) error
	Recent(ctx context.Context, limit int) ([]syncx.Event, error)
}

// Deps are the services handlers work against. Blobs, Events, Metrics and
// Ready are optional.
type Deps struct {
	Quizzes quiz.Store
	Builder *moodle.Builder
	Blobs   storage.BlobStore
	Events  Auditor
	Metrics *metrics.Metrics
	Log     *zap.Logger
	Ready   func(context.Context) error
}

type Options struct {
	Auth        *auth.AuthService
	Limiter     *security.RateLimiter // export and import routes only
	CORSOrigins []string
	Timeout     time.Duration
}

func NewRouter(d Deps, o Options) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Builder == nil {
		d.Builder = moodle.NewBuilder()
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(d.Log), middleware.Recoverer, middleware.Timeout(o.Timeout))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/auth/login", auth.LoginHandler(o.Auth))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(o.Auth))

		pr.With(rbac.Require(rbac.PermQuizCreate)).Post("/quizzes", CreateQuizHandler(d.Quizzes))
		pr.With(rbac.RequireAny(rbac.PermQuizView, rbac.PermQuizCreate)).Get("/quizzes", ListQuizzesHandler(d.Quizzes))
		pr.With(rbac.Require(rbac.PermQuizView)).Get("/quizzes/{id}", GetQuizHandler(d.Quizzes))
		pr.With(rbac.Require(rbac.PermQuizDelete)).Delete("/quizzes/{id}", DeleteQuizHandler(d.Quizzes))

		pr.Group(func(er chi.Router) {
			if o.Limiter != nil {
				er.Use(o.Limiter.Middleware)
			}
			er.With(rbac.Require(rbac.PermExportMBZ)).Post("/export/mbz", ExportMBZHandler(d))
			er.With(rbac.Require(rbac.PermExportXML)).Post("/export/xml", ExportXMLHandler(d))
			er.With(rbac.Require(rbac.PermImportXML)).Post("/import/xml", ImportXMLHandler(d))
		})

		pr.With(rbac.Require(rbac.PermAuditView)).Get("/exports", ListExportsHandler(d))
		pr.With(rbac.RequireAny(rbac.PermExportMBZ, rbac.PermExportXML)).Get("/exports/files/*", ExportFileHandler(d))
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
