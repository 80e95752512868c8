// Package api serves every engine operation as JSON over HTTP. Callers are
// identified by the X-User-ID header; authenticating that header is the job
// of whatever sits in front of the server.
package api

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/julianstephens/daystreak/internal/constants"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/metrics"
	"github.com/julianstephens/daystreak/internal/reminder"
	"github.com/julianstephens/daystreak/internal/tracker"
)

// UserHeader carries the id of the calling user.
const UserHeader = "X-User-ID"

const userKey = "userID"

type Options struct {
	// AllowOrigins is the CORS origin list; empty allows any origin.
	AllowOrigins string
	Reporter     apperrors.Reporter
}

type Server struct {
	app       *fiber.App
	tracker   *tracker.Tracker
	reminders *reminder.Dispatcher
	metrics   *metrics.Metrics
	reporter  apperrors.Reporter
	log       *log.Logger
}

// New creates a new Server and registers its routes
func New(t *tracker.Tracker, reminders *reminder.Dispatcher, opts Options) *Server {
	if opts.Reporter == nil {
		opts.Reporter = apperrors.NopReporter{}
	}
	if opts.AllowOrigins == "" {
		opts.AllowOrigins = "*"
	}

	s := &Server{
		tracker:   t,
		reminders: reminders,
		metrics:   t.Metrics(),
		reporter:  opts.Reporter,
		log:       logger.Component("api"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               constants.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + UserHeader,
	}))
	s.app.Use(s.requestLogger)
	s.routes()
	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info("HTTP server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)
	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	v1 := s.app.Group("/v1")
	v1.Post("/users", s.register)
	v1.Post("/reminders/dispatch", s.dispatchReminders)

	me := v1.Group("", s.requireUser)
	me.Get("/me", s.getMe)
	me.Patch("/me", s.updateMe)
	me.Post("/me/refresh", s.refresh)
	me.Get("/users/search", s.searchUsers)
	me.Get("/users/:id", s.getUser)

	me.Get("/habits", s.listHabits)
	me.Post("/habits", s.createHabit)
	me.Get("/habits/:id", s.getHabit)
	me.Patch("/habits/:id", s.updateHabit)
	me.Delete("/habits/:id", s.deleteHabit)
	me.Post("/habits/:id/complete", s.completeHabit)
	me.Post("/habits/:id/uncomplete", s.uncompleteHabit)

	me.Put("/completions", s.toggleCompletion)
	me.Get("/completions", s.completionsByDate)
	me.Get("/completions/recent", s.recentCompletions)
	me.Get("/days/today", s.today)
	me.Get("/days/:date", s.day)
	me.Get("/summary/week", s.weeklySummary)

	me.Get("/stats", s.getStats)
	me.Post("/stats/xp", s.addXP)
	me.Delete("/stats/xp", s.removeXP)
	me.Get("/streak", s.getStreak)
	me.Post("/streak/check", s.checkStreak)

	me.Get("/achievements", s.listAchievements)
	me.Post("/achievements/check", s.checkAchievements)

	me.Get("/friends", s.listFriends)
	me.Delete("/friends/:id", s.removeFriend)
	me.Get("/friends/requests", s.pendingRequests)
	me.Post("/friends/requests", s.sendRequest)
	me.Post("/friends/requests/:id/accept", s.acceptRequest)
	me.Post("/friends/requests/:id/reject", s.rejectRequest)

	me.Get("/partnerships", s.listPartnerships)
	me.Post("/partnerships", s.createInvite)
	me.Get("/partnerships/invites/count", s.pendingInvites)
	me.Get("/partnerships/:id", s.getPartnership)
	me.Post("/partnerships/:id/accept", s.acceptInvite)
	me.Post("/partnerships/:id/cancel", s.cancelPartnership)
	me.Post("/partnerships/:id/check", s.checkPartnership)
	me.Put("/partnerships/:id/reminder", s.updateReminder)
}

func (s *Server) health(c *fiber.Ctx) error {
	return ok(c, fiber.Map{"status": "ok", "version": constants.Version})
}

func (s *Server) requireUser(c *fiber.Ctx) error {
	id := c.Get(UserHeader)
	if id == "" {
		return failure(c, fiber.StatusUnauthorized, "missing "+UserHeader+" header")
	}
	c.Locals(userKey, id)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(userKey).(string)
	return id
}

// handleError renders any error returned by a handler in the envelope.
// Unexpected failures are reported and never leak details.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	message := apperrors.Reason(err)
	if status == fiber.StatusInternalServerError {
		s.reporter.Report(c.UserContext(), err, "method", c.Method(), "path", c.Path())
		message = "internal server error"
	}
	if status >= fiber.StatusInternalServerError {
		s.log.Error("Request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return failure(c, status, message)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = StatusOf(err)
	}
	route := c.Path()
	if r := c.Route(); r != nil && r.Path != "" {
		route = r.Path
	}
	s.metrics.Request(route, strconv.Itoa(status))
	s.log.Debug("Request", "method", c.Method(), "path", c.Path(), "status", status, "duration", time.Since(start))
	return err
}

// bind parses the JSON body into v, reporting malformed bodies as
// validation errors.
func bind(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	return nil
}
