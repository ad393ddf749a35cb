package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/media"
	"github.com/estatehq/backoffice/internal/backoffice/service"
	"github.com/estatehq/backoffice/internal/backoffice/store"
	"github.com/estatehq/backoffice/pkg/httpx"
	"github.com/estatehq/backoffice/pkg/slogx"

	_ "github.com/estatehq/backoffice/api/backoffice" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	ClientService *service.ClientService
	AdminService  *service.AdminService
	AgencyService *service.AgencyService
	OTPService    *service.OTPService
	Uploader      *media.Uploader

	// RequireVerification gates record creation behind email verification.
	RequireVerification bool
	// MailerConfigured feeds the readiness probe.
	MailerConfigured bool
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerClients()
	r.registerAdmins()
	r.registerAgencies()
	r.registerOTP()
	r.registerMedia()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Real Estate Back Office API
//	@version		0.1.0
//	@description	Back-office record management for clients, admins and agencies.
//	@description
//	@description	Creating a record requires the submitted email to be verified first:
//	@description	request a code with POST /otp, confirm it with POST /otp/verify, then
//	@description	present the session token in the X-Verification-Token header.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{
		ClientService:       r.ClientService,
		OTPService:          r.OTPService,
		RequireVerification: r.RequireVerification,
	}

	// Reads are cheap; mutations get the moderate profile.
	r.Mux.Handle("GET /clients",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /clients",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /clients",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /clients",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmins() {
	h := &AdminsHandler{
		AdminService:        r.AdminService,
		OTPService:          r.OTPService,
		RequireVerification: r.RequireVerification,
	}

	r.Mux.Handle("GET /admin",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /admin",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /admin",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /admin",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAgencies() {
	h := &AgenciesHandler{
		AgencyService:       r.AgencyService,
		OTPService:          r.OTPService,
		RequireVerification: r.RequireVerification,
	}

	r.Mux.Handle("GET /agency",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /agency",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /agency",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /agency",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOTP() {
	h := &OTPHandler{OTPService: r.OTPService}

	// Strict limits: each issue sends an email, each verify burns an
	// attempt on someone's session.
	r.Mux.Handle("POST /otp",
		httpx.Chain(http.HandlerFunc(h.HandleIssue),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMedia() {
	h := &UploadHandler{Uploader: r.Uploader}

	r.Mux.Handle("POST /media/upload",
		httpx.Chain(http.HandlerFunc(h.HandleUpload),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.MailerConfigured),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
