package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/arifa/core/counter"
	"github.com/trezcool/arifa/core/syncbus"
)

type counterApi struct {
	svc *counter.Service
	bus *syncbus.Bus
}

func registerCounterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *counter.Service, bus *syncbus.Bus) {
	api := counterApi{svc: svc, bus: bus}

	cg := g.Group("/counters", jwt)
	cg.GET("", api.retrieve)
	cg.POST("/recount", api.recount)
}

// retrieve returns the authenticated viewer's current counts, computed fresh
// from the store.
func (api counterApi) retrieve(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx)
	if err != nil {
		return err
	}

	cs, err := api.svc.CounterSet(viewer)
	if err != nil {
		return errors.Wrap(err, "computing counts")
	}
	return ctx.JSON(http.StatusOK, cs)
}

// recount asks every watching context to recompute. The response carries the
// caller's own fresh counts.
func (api counterApi) recount(ctx echo.Context) error {
	viewer, err := getContextViewer(ctx)
	if err != nil {
		return err
	}

	api.bus.Publish(syncbus.Event{Topic: syncbus.TopicRecountRequested})

	cs, err := api.svc.CounterSet(viewer)
	if err != nil {
		return errors.Wrap(err, "computing counts")
	}
	return ctx.JSON(http.StatusOK, cs)
}
