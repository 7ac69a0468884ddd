package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/arjunnair/tiffinbox-backend/api/responses"
	"github.com/arjunnair/tiffinbox-backend/api/validators"
	"github.com/arjunnair/tiffinbox-backend/internal/cart"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
)

type cartItemPayload struct {
	ItemID   string `json:"itemId" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Size     string `json:"size"`
	Price    string `json:"price" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	ImageURL string `json:"image"`
	Category string `json:"category"`
}

type cartAddItemRequest struct {
	OwnerID string          `json:"ownerId" validate:"required,uuid"`
	Item    cartItemPayload `json:"item" validate:"required"`
}

type cartRemoveItemRequest struct {
	OwnerID string `json:"ownerId" validate:"required,uuid"`
	ItemID  string `json:"itemId" validate:"required"`
	Size    string `json:"size"`
}

type cartSetQuantityRequest struct {
	OwnerID  string `json:"ownerId" validate:"required,uuid"`
	ItemID   string `json:"itemId" validate:"required"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type cartClearRequest struct {
	OwnerID string `json:"ownerId" validate:"required,uuid"`
}

type cartSnapshotResponse struct {
	Success        bool               `json:"success"`
	Items          []cart.Line        `json:"items"`
	Total          float64            `json:"total"`
	CategoryTotals map[string]float64 `json:"categoryTotals"`
}

type cartItemsResponse struct {
	Success bool        `json:"success"`
	Items   []cart.Line `json:"items"`
}

type cartClearResponse struct {
	Success bool `json:"success"`
}

// CartFetch returns the owner's cart with its aggregated totals.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := validators.ParseQueryUUID(r, "ownerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.Lines(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.Total(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		totals, err := svc.CategoryTotals(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartSnapshotResponse{
			Success:        true,
			Items:          lines,
			Total:          total,
			CategoryTotals: totals,
		})
	}
}

// CartAddItem merges the item into the owner's cart.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.AddLine(r.Context(), uuid.MustParse(payload.OwnerID), cart.Line{
			ItemID:   payload.Item.ItemID,
			Name:     payload.Item.Name,
			Size:     payload.Item.Size,
			Price:    payload.Item.Price,
			Quantity: payload.Item.Quantity,
			ImageURL: payload.Item.ImageURL,
			Category: payload.Item.Category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartItemsResponse{Success: true, Items: lines})
	}
}

// CartRemoveItem drops the (itemId, size) line from the owner's cart.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartRemoveItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.RemoveLine(r.Context(), uuid.MustParse(payload.OwnerID), payload.ItemID, payload.Size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartItemsResponse{Success: true, Items: lines})
	}
}

// CartSetQuantity overwrites a line's quantity; zero or less removes the line.
func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartSetQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.SetQuantity(r.Context(), uuid.MustParse(payload.OwnerID), payload.ItemID, payload.Size, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartItemsResponse{Success: true, Items: lines})
	}
}

// CartClear empties the owner's cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartClearRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), uuid.MustParse(payload.OwnerID)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartClearResponse{Success: true})
	}
}
