package studio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Rana718/injectdb/internal/config"
	"github.com/Rana718/injectdb/internal/logging"
	"github.com/Rana718/injectdb/internal/session"
	"github.com/Rana718/injectdb/internal/studio/common"
	"github.com/fatih/color"
	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "injectdb_session"
	sessionKey    = "session"
)

type Options struct {
	// DefaultDestinationURL is the destination of every new session. It is
	// opened on the session's first database call.
	DefaultDestinationURL string
	// AccessLog receives one line per request when set.
	AccessLog io.Writer
}

type Server struct {
	app     *fiber.App
	cfg     *config.Config
	store   *session.Store
	service *Service
	logger  logging.Logger
	opts    Options
}

func NewServer(cfg *config.Config, store *session.Store, logger logging.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	app := common.NewApp(TemplatesFS, cfg.MaxUploadBytes(), opts.AccessLog)
	if err := common.SetupStaticFS(app, StaticFS); err != nil {
		return nil, fmt.Errorf("failed to mount static files: %w", err)
	}

	server := &Server{
		app:     app,
		cfg:     cfg,
		store:   store,
		service: NewService(cfg, logger),
		logger:  logger,
		opts:    opts,
	}
	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	s.app.Get("/", s.withSession, s.handleIndex)

	api := s.app.Group("/api", s.withSession)
	api.Get("/state", s.handleState)
	api.Post("/upload", s.handleUpload)
	api.Post("/connect", s.handleConnect)
	api.Get("/tables", s.handleGetTables)
	api.Get("/tables/:name/columns", s.handleGetColumns)

	api.Get("/mappings", s.handleGetMappings)
	api.Post("/mappings", s.handleAddMapping)
	api.Put("/mappings/:index", s.handleUpdateMapping)
	api.Delete("/mappings/:index", s.handleRemoveMapping)

	api.Get("/relationships", s.handleGetRelationships)
	api.Post("/relationships", s.handleAddRelationship)
	api.Delete("/relationships/last", s.handleRemoveLastRelationship)
	api.Delete("/relationships/:index", s.handleRemoveRelationship)

	api.Post("/insert", s.handleInsert)
	api.Post("/transfer", s.handleTransfer)
	api.Get("/plan", s.handleExportPlan)
	api.Post("/plan", s.handleImportPlan)
	api.Post("/reset", s.handleReset)
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// withSession loads the browser's session from its cookie, creating one when
// the cookie is missing or stale.
func (s *Server) withSession(c *fiber.Ctx) error {
	sess, created := s.store.GetOrCreate(c.Cookies(sessionCookie))
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		if url := s.opts.DefaultDestinationURL; url != "" {
			sess.SetDefault(session.RoleDestination, url)
		}
	}
	c.Locals(sessionKey, sess)
	return c.Next()
}

func currentSession(c *fiber.Ctx) *session.Session {
	return c.Locals(sessionKey).(*session.Session)
}

// Start listens until ctx is cancelled, then shuts down and closes every
// session's connections.
func (s *Server) Start(ctx context.Context, openBrowser bool) error {
	port := common.FindAvailablePort(s.cfg.Server.Port)
	if port != s.cfg.Server.Port {
		color.Yellow("⚠️  Port %d is in use, using port %d instead", s.cfg.Server.Port, port)
	}

	url := fmt.Sprintf("http://%s:%d", s.cfg.Server.Host, port)
	color.Green("🚀 injectdb starting on %s", url)

	if openBrowser {
		go common.OpenBrowser(url)
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.store.Run(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(fmt.Sprintf("%s:%d", s.cfg.Server.Host, port))
	}()

	select {
	case err := <-errCh:
		s.store.CloseAll()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down...")
	err := s.app.ShutdownWithTimeout(5 * time.Second)
	s.store.CloseAll()
	return err
}
