package www

import (
	"net/http"

	"vendoredge/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	sessions *sessionStore
	eventHub *EventHub
}

// NewRouter creates the chi router and returns it along with a stop function.
func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
	}

	// An SSE connect is the console coming to the foreground; treat it
	// like an app resume and poll immediately.
	h.eventHub = NewEventHub(func() {
		eng.Observer().Signal()
	})
	h.eventHub.Start()
	h.eventHub.SetupEngineListeners(eng)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE (no auth — counter-side terminal)
	r.Get("/events", h.eventHub.HandleSSE)

	// Login/logout
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", func(r chi.Router) {
		// Public API (terminal actions)
		r.Get("/alert", h.apiAlertState)
		r.Post("/alert/accept", h.apiAcceptAlert)
		r.Post("/alert/dismiss", h.apiDismissAlert)
		r.Get("/orders", h.apiListOrders)
		r.Get("/decisions", h.apiListDecisions)
		r.Get("/status", h.apiStatus)

		// Admin API (setup mutations)
		r.Group(func(r chi.Router) {
			r.Use(h.adminMiddleware)
			r.Post("/session/reset", h.apiResetSession)
			r.Put("/config/marketplace", h.apiUpdateMarketplace)
			r.Put("/config/messaging", h.apiUpdateMessaging)
			r.Post("/config/password", h.apiChangePassword)
		})
	})

	return r, func() {
		h.eventHub.Stop()
	}
}

func (h *Handlers) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := h.sessions.getUser(r)
		if !ok || username == "" {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
