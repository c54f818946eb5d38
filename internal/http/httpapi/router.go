package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"captzio/internal/http/handlers"
	"captzio/internal/infra"
	"captzio/internal/middleware"
)

// Options configures the cross cutting middleware around the API.
type Options struct {
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	// StaticDir serves locally stored images under /static when set.
	StaticDir string
	Logger    infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.RateLimit(opts.RateLimitPerMin),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/packages", app.Packages)
		r.Post("/webhooks/mercadopago", app.MercadoPagoWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret), app.RequireAccount)

			r.Get("/me", app.Me)

			r.Route("/images", func(r chi.Router) {
				r.Post("/", app.ImagesSubmit)
				r.Get("/", app.ImageHistory)
				r.Get("/{jobID}", app.ImageStatus)
			})

			r.Route("/captions", func(r chi.Router) {
				r.Post("/", app.CaptionsGenerate)
				r.Get("/", app.CaptionHistory)
			})

			r.Post("/checkout", app.Checkout)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/accounts", app.AdminAccounts)
				r.Post("/accounts/{id}/credits", app.AdminAdjustCredits)
				r.Put("/accounts/{id}/role", app.AdminSetRole)
				r.Get("/transactions", app.AdminTransactions)
				r.Get("/stats", app.StatsSummary)
			})
		})
	})

	return r
}
