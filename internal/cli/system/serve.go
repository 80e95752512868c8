package system

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/daystreak/internal/api"
	"github.com/julianstephens/daystreak/internal/cli"
	"github.com/julianstephens/daystreak/internal/constants"
	"github.com/julianstephens/daystreak/internal/events"
	"github.com/julianstephens/daystreak/internal/reminder"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd runs the HTTP API until interrupted. Reminders dispatched through
// the API are published as events for an external push service.
type ServeCmd struct {
	Addr         string `help:"Listen address (default: server.addr from config)."`
	AllowOrigins string `help:"Comma-separated list of allowed CORS origins." default:"*"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	addr := c.Addr
	if addr == "" && ctx.Config != nil {
		addr = ctx.Config.Server.Addr
	}
	if addr == "" {
		addr = constants.DefaultServerAddr
	}

	pub := ctx.Publisher
	if pub == nil {
		pub = events.NewLogPublisher()
	}

	trk := ctx.Tracker()
	reminders := reminder.New(ctx.Store, trk.Ledger(), reminder.EventSender{Publisher: pub, Clock: ctx.Clock}, ctx.Clock, trk.Metrics())
	srv := api.New(trk, reminders, api.Options{
		AllowOrigins: c.AllowOrigins,
		Reporter:     ctx.Reporter,
	})

	g, gctx := errgroup.WithContext(ctx.Context())
	g.Go(func() error {
		return srv.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	ctx.Printf("Serving daystreak API on %s\n", addr)
	if err := g.Wait(); err != nil {
		return err
	}
	ctx.Println("Server stopped")
	return nil
}
