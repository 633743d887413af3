package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atlascoffee/internal/model"
	"atlascoffee/internal/notify"
)

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
}

func ListNotificationsHandler(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := notifier.Notifications()
		if items == nil {
			items = []model.Notification{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(notificationsResponse{
			Notifications: items,
			Unread:        notifier.Unread(),
		})
	}
}

// ActivateNotificationsHandler starts the polling session; the dashboard
// calls it on mount.
func ActivateNotificationsHandler(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifier.Activate()
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeactivateNotificationsHandler ends the polling session and resets its
// state; the dashboard calls it on unmount or logout.
func DeactivateNotificationsHandler(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifier.Deactivate()
		w.WriteHeader(http.StatusNoContent)
	}
}

func MarkNotificationReadHandler(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !notifier.MarkRead(id) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func MarkAllNotificationsReadHandler(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifier.MarkAllRead()
		w.WriteHeader(http.StatusNoContent)
	}
}

func ClearNotificationsHandler(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifier.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}
