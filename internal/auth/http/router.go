package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/foliocms/folio/internal/auth/revocation"
	"github.com/foliocms/folio/internal/auth/service"
	"github.com/foliocms/folio/internal/auth/store"
	"github.com/foliocms/folio/pkg/httpx"
	"github.com/foliocms/folio/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	revocations revocation.Store

	LoginService *service.LoginService
	TokenService *service.TokenService
	MFAService   *service.MFAService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	rev revocation.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		revocations:  rev,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerTokens()
	r.registerMFA()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{LoginService: r.LoginService}

	// Both login steps carry credentials, so both get the strict limit.
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/login/mfa",
		httpx.Chain(http.HandlerFunc(h.HandleLoginMFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTokens() {
	h := &TokenHandler{TokenService: r.TokenService}

	// Refresh rotation is a credential exchange; limit strictly by IP.
	r.Mux.Handle("POST /v1/token/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Logout takes raw tokens in the body so it does not require authn.
	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	securedEnroll := httpx.Chain(http.HandlerFunc(h.HandleEnroll),
		httpx.AuthnMiddleware(r.TokenService),
		httpx.RevocationMiddleware(r.TokenService),
		httpx.RequireAnyScope("mfa:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// Strict limit on verify to slow down TOTP code guessing.
	securedVerify := httpx.Chain(http.HandlerFunc(h.HandleVerify),
		httpx.AuthnMiddleware(r.TokenService),
		httpx.RevocationMiddleware(r.TokenService),
		httpx.RequireAnyScope("mfa:write"),
		httpx.RateLimitByUser(httpx.StrictLimit),
	)

	securedRegenerate := httpx.Chain(http.HandlerFunc(h.HandleRegenerateBackupCodes),
		httpx.AuthnMiddleware(r.TokenService),
		httpx.RevocationMiddleware(r.TokenService),
		httpx.RequireAnyScope("mfa:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	securedDisable := httpx.Chain(http.HandlerFunc(h.HandleDisable),
		httpx.AuthnMiddleware(r.TokenService),
		httpx.RevocationMiddleware(r.TokenService),
		httpx.RequireAnyScope("mfa:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/mfa/enroll", securedEnroll)
	r.Mux.Handle("POST /v1/mfa/verify", securedVerify)
	r.Mux.Handle("POST /v1/mfa/backup-codes", securedRegenerate)
	r.Mux.Handle("DELETE /v1/mfa", securedDisable)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.revocations),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
