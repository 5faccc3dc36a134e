// Package deeplink runs a local HTTP bridge so the platform's URL dispatcher
// can drive the console: share links and sign-in callbacks hit a loopback
// port and are translated into in-app navigation.
package deeplink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/familyhelper-app/console/internal/auth"
	"github.com/familyhelper-app/console/internal/logging"
	"github.com/familyhelper-app/console/internal/routes"
)

// Navigator receives resolved deep-link destinations. The TUI program
// implements it by injecting navigation messages into its event loop.
type Navigator interface {
	Navigate(match routes.Match)
}

// Server is the loopback deep-link bridge.
type Server struct {
	port      int
	navigator Navigator

	// callbacks receives OAuth authorization responses captured on
	// /auth/callback. Buffered so the HTTP handler never blocks on a slow
	// consumer.
	callbacks chan auth.CallbackResult

	httpServer *http.Server
}

// NewServer creates a bridge listening on 127.0.0.1:port.
func NewServer(port int, navigator Navigator) *Server {
	return &Server{
		port:      port,
		navigator: navigator,
		callbacks: make(chan auth.CallbackResult, 4),
	}
}

// RedirectURI returns the OAuth redirect this bridge serves.
func (s *Server) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d/auth/callback", s.port)
}

// Callbacks exposes captured authorization responses to the login flow.
func (s *Server) Callbacks() <-chan auth.CallbackResult {
	return s.callbacks
}

// Start binds the listener and serves in a background goroutine.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery())

	engine.GET("/auth/callback", s.handleAuthCallback)
	engine.NoRoute(s.handleNavigation)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("deeplink: bind %s: %w", addr, err)
	}

	s.httpServer = &http.Server{Handler: engine}
	go func() {
		if errServe := s.httpServer.Serve(listener); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.WithError(errServe).Error("deep-link bridge stopped")
		}
	}()
	log.Debugf("deep-link bridge listening on %s", addr)
	return nil
}

// Stop shuts the bridge down, waiting briefly for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleAuthCallback(c *gin.Context) {
	result := auth.CallbackResult{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Error: c.Query("error"),
	}
	if result.Error == "" && result.Code == "" {
		c.String(http.StatusBadRequest, "Missing authorization code.")
		return
	}

	select {
	case s.callbacks <- result:
	default:
		log.Warn("dropping auth callback: no login in progress")
	}

	if result.Error != "" {
		c.String(http.StatusOK, "Sign-in failed: %s. You can close this tab.", result.Error)
		return
	}
	c.String(http.StatusOK, "Signed in. You can close this tab and return to the console.")
}

// handleNavigation resolves any other path against the route table and hands
// the destination to the running program. Gating happens in the navigator,
// which knows the current session state.
func (s *Server) handleNavigation(c *gin.Context) {
	match := routes.Resolve(c.Request.URL.Path)
	if match.Route.Name == routes.NotFound {
		c.String(http.StatusNotFound, "Unknown destination.")
		return
	}
	log.WithFields(log.Fields{
		"route": string(match.Route.Name),
		"path":  c.Request.URL.Path,
	}).Info("deep link dispatched")
	s.navigator.Navigate(match)
	c.String(http.StatusOK, "Opening %s in the console.", match.Route.Title)
}
