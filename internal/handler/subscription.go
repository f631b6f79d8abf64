package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtube/internal/queue"
	"github.com/iliyamo/streamtube/internal/repository"
	queue_publisher "github.com/iliyamo/streamtube/internal/service"
)

// SubscriptionHandler serves the subscribe toggle.
type SubscriptionHandler struct {
	Subs  *repository.SubscriptionRepo
	Users *repository.UserRepo
}

func NewSubscriptionHandler(subs *repository.SubscriptionRepo, users *repository.UserRepo) *SubscriptionHandler {
	return &SubscriptionHandler{Subs: subs, Users: users}
}

// Toggle handles POST /v1/channels/:id/subscribe.  A new subscription emits
// a channel.subscribed event best effort; unsubscribes emit nothing.
func (h *SubscriptionHandler) Toggle(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	channelID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if channelID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot subscribe to yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subscribed, err := h.Subs.Toggle(ctx, uid, channelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle failed"})
	}

	if subscribed {
		subName := ""
		if u, err := h.Users.GetByID(ctx, uid); err == nil {
			subName = u.UserName
		}
		if err := queue_publisher.PublishChannelSubscribed(ctx, queue.ChannelSubscribedEvent{
			SubscriberID:       uid,
			SubscriberUserName: subName,
			ChannelID:          channelID,
			SubscribedAt:       time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			log.Printf("subscription: publish event failed for channel %d: %v", channelID, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"subscribed": subscribed})
}
