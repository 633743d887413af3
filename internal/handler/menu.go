package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atlascoffee/internal/model"
	"atlascoffee/internal/service"
)

func ListMenuHandler(menuSvc *service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := menuSvc.List(r.Context())
		if err != nil {
			slog.Error("menu list failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeMenuItems(w, items)
	}
}

func ListMenuByCategoryHandler(menuSvc *service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		if !service.ValidCategory(category) {
			http.Error(w, fmt.Sprintf("unknown category %q", category), http.StatusBadRequest)
			return
		}

		items, err := menuSvc.ListByCategory(r.Context(), category)
		if err != nil {
			slog.Error("menu list failed", "category", category, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeMenuItems(w, items)
	}
}

func CreateMenuItemHandler(menuSvc *service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item model.MenuItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		created, err := menuSvc.Create(r.Context(), item)
		if err != nil {
			slog.Error("menu create failed", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}

func UpdateMenuItemHandler(menuSvc *service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var patch service.MenuPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := menuSvc.Update(r.Context(), id, patch)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrMenuItemNotFound):
				http.Error(w, "menu item not found", http.StatusNotFound)
			default:
				slog.Error("menu update failed", "id", id, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(updated)
	}
}

func writeMenuItems(w http.ResponseWriter, items []model.MenuItem) {
	if items == nil {
		items = []model.MenuItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
