// Package controller exposes the notification broker's external command
// surface (spec.md §1: register_notif, get_notif, get_single_notif) as
// thin echo handlers. No business logic lives here — requests are
// validated, mapped to command envelopes, and handed to the broker actor
// or the relational-store reader.
package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ichi-go/internal/applications/notifbroker/actor"
	"ichi-go/internal/applications/notifbroker/store"
	"ichi-go/pkg/utils/response"
)

type Controller struct {
	actor    *actor.Actor
	reader   store.Reader
	validate *validator.Validate
}

func New(a *actor.Actor, reader store.Reader, v *validator.Validate) *Controller {
	return &Controller{actor: a, reader: reader, validate: v}
}

// RegisterRoutes adds the notification broker's HTTP routes to e.
func (c *Controller) RegisterRoutes(e *echo.Echo, basePath string) {
	g := e.Group(basePath)
	g.POST("/notifications", c.RegisterNotif)
	g.GET("/notifications/:receiver", c.GetNotif)
	g.GET("/notifications/:receiver/:id", c.GetSingleNotif)
}

// RegisterNotif handles POST /notifications — validates the request,
// maps it to a ProduceNotif command, and hands it to the broker actor.
// The handler returns as soon as the command is dispatched; the actual
// publish runs on the actor's own or a detached task.
func (c *Controller) RegisterNotif(eCtx echo.Context) error {
	var req RegisterNotifRequest
	if err := eCtx.Bind(&req); err != nil {
		return response.Error(eCtx, http.StatusBadRequest, err)
	}
	if err := c.validate.Struct(req); err != nil {
		return response.Error(eCtx, http.StatusBadRequest, err)
	}

	cmd := req.toProduceNotif()
	if cmd.NotifData.ID == "" {
		cmd.NotifData.ID = uuid.NewString()
	}

	c.actor.HandleProduce(context.WithoutCancel(eCtx.Request().Context()), cmd)

	return response.Created(eCtx, map[string]string{"id": cmd.NotifData.ID})
}

// GetNotif handles GET /notifications/:receiver — paginated history for
// one receiver, read from the relational-store accessor.
func (c *Controller) GetNotif(eCtx echo.Context) error {
	receiver := eCtx.Param("receiver")
	limit, offset := parsePage(eCtx)

	notifs, err := c.reader.ListByReceiver(eCtx.Request().Context(), receiver, limit, offset)
	if err != nil {
		return response.Error(eCtx, http.StatusInternalServerError, err)
	}

	out := make([]NotifResponse, 0, len(notifs))
	for _, n := range notifs {
		out = append(out, toNotifResponse(n))
	}
	return response.Success(eCtx, out)
}

// GetSingleNotif handles GET /notifications/:receiver/:id.
func (c *Controller) GetSingleNotif(eCtx echo.Context) error {
	receiver := eCtx.Param("receiver")
	id := eCtx.Param("id")

	notifs, err := c.reader.ListByReceiver(eCtx.Request().Context(), receiver, 1000, 0)
	if err != nil {
		return response.Error(eCtx, http.StatusInternalServerError, err)
	}

	for _, n := range notifs {
		if n.ID == id {
			return response.Success(eCtx, toNotifResponse(n))
		}
	}
	return response.Error(eCtx, http.StatusNotFound, echo.NewHTTPError(http.StatusNotFound, "notification not found"))
}

func parsePage(eCtx echo.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v := eCtx.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := eCtx.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return
}
