package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/event"
)

type eventApi struct {
	store *Store
}

func registerEventAPI(g *echo.Group, store *Store) {
	api := eventApi{store: store}

	g.Use(approvedMiddleware(store))
	g.GET("", api.query)
	g.POST("", api.create, adminMiddleware())

	dg := g.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/attendance", api.checkIn)
}

// Handlers

func (api *eventApi) query(ctx echo.Context) error {
	evts := api.store.QueryEvents(ctx.QueryParam("search"))
	if !isAdmin(ctx) {
		for i := range evts {
			evts[i].CheckinToken = ""
		}
	}
	return ctx.JSON(http.StatusOK, evts)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := api.store.GetEvent(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event by ID")
	}
	if !isAdmin(ctx) {
		evt.CheckinToken = ""
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	return ctx.JSON(http.StatusCreated, api.store.CreateEvent(data, claims.Subject))
}

func (api *eventApi) update(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	evt, err := api.store.UpdateEvent(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.store.DeleteEvent(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) checkIn(ctx echo.Context) error {
	var data event.CheckinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckinRequest")
	}
	if err := core.ValidateStruct(&data); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	att, err := api.store.CheckIn(ctx.Param("id"), claims.Subject, data.Token)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func isAdmin(ctx echo.Context) bool {
	claims, err := getContextClaims(ctx)
	return err == nil && claims.IsAdmin()
}
