package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/gts"
)

type gtsApi struct {
	store *Store
}

func registerGTSAPI(g *echo.Group, jwt echo.MiddlewareFunc, store *Store) {
	api := gtsApi{store: store}

	// the registration wizard creates the record right after the account, before any login
	g.POST("/register/alumni/:userId", api.create)

	ag := g.Group("", jwt)
	ag.GET("/user/:userId", api.retrieveByUser, ownerOrAdminMiddleware(store, "userId"))
	ag.PUT("/:id/:section", api.updateSection)
}

// Handlers

func (api *gtsApi) create(ctx echo.Context) error {
	vals := make(form.Values)
	if err := ctx.Bind(&vals); err != nil {
		return errors.Wrap(err, "binding to form.Values")
	}

	// only keys the survey knows of
	known := make(form.Values, len(vals))
	for k, v := range vals {
		if _, ok := gts.Sections.Field(k); ok {
			known[k] = v
		}
	}

	rec, err := api.store.CreateRecord(ctx.Param("userId"), known)
	if err != nil {
		return errors.Wrap(err, "creating GTS record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *gtsApi) retrieveByUser(ctx echo.Context) error {
	rec, err := api.store.RecordByUser(ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "finding GTS record by user")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *gtsApi) updateSection(ctx echo.Context) error {
	sec, ok := gts.Sections.ByID(ctx.Param("section"))
	if !ok {
		return errHttpNotFound
	}
	rec, err := api.store.GetRecord(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding GTS record")
	}
	usr, err := getContextUser(ctx, api.store)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if rec.UserID != usr.ID && !usr.IsAdmin() {
		return errHttpNotFound
	}

	vals := make(form.Values)
	if err := ctx.Bind(&vals); err != nil {
		return errors.Wrap(err, "binding to form.Values")
	}
	// a section update only writes that section's fields
	update := make(form.Values, len(sec.Fields))
	for k, v := range vals {
		if _, ok := sec.Field(k); ok {
			update[k] = v
		}
	}

	rec, err = api.store.UpdateRecord(rec.ID, update)
	if err != nil {
		return errors.Wrap(err, "updating GTS section")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// ownerOrAdminMiddleware only lets through the user named by the param, or an admin.
// Anyone else gets a 404.
func ownerOrAdminMiddleware(store *Store, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, store)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if ctx.Param(param) == usr.ID || usr.IsAdmin() {
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}
