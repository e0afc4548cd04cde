package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type notificationApi struct {
	store *Store
}

func registerNotificationAPI(g *echo.Group, store *Store) {
	api := notificationApi{store: store}

	g.GET("", api.query)
	g.PUT("/:id/read", api.markRead)
}

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	return ctx.JSON(http.StatusOK, api.store.Notifications(claims.Subject))
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.store.MarkRead(ctx.Param("id"), claims.Subject); err != nil {
		return errors.Wrap(err, "marking notification as read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type adminApi struct {
	store *Store
}

func registerAdminAPI(g *echo.Group, store *Store) {
	api := adminApi{store: store}

	g.GET("/pending", api.pending)
	g.PUT("/users/:id/approve", api.approve)
}

func (api *adminApi) pending(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.PendingAlumni())
}

func (api *adminApi) approve(ctx echo.Context) error {
	usr, err := api.store.Approve(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving user")
	}
	return ctx.JSON(http.StatusOK, usr)
}
