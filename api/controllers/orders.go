package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arjunnair/tiffinbox-backend/api/responses"
	"github.com/arjunnair/tiffinbox-backend/api/validators"
	"github.com/arjunnair/tiffinbox-backend/internal/orders"
	"github.com/arjunnair/tiffinbox-backend/pkg/db/models"
	"github.com/arjunnair/tiffinbox-backend/pkg/enums"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
)

// orderProductPayload is one expanded cart line. The storefront stamps a
// client-side orderId on each line; the server assigns its own and ignores it.
type orderProductPayload struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Category string  `json:"category"`
	OrderID  string  `json:"orderId"`
}

// createOrderRequest mirrors the checkout draft. CategoryTotals is the cart's
// snapshot at submit time; order totals are re-derived from the lines, so the
// snapshot is accepted but not persisted here.
type createOrderRequest struct {
	UserID         string                `json:"userId" validate:"required,uuid"`
	Products       []orderProductPayload `json:"products" validate:"required,min=1,dive"`
	Status         string                `json:"status" validate:"omitempty,oneof=PENDING COMPLETED CANCELLED"`
	CategoryTotals map[string]float64    `json:"categoryTotals"`
}

func (p createOrderRequest) toInput() orders.CreateOrderInput {
	lines := make([]orders.LineInput, 0, len(p.Products))
	for _, product := range p.Products {
		lines = append(lines, orders.LineInput{
			Name:      product.Name,
			UnitPrice: product.Price,
			Category:  product.Category,
		})
	}
	return orders.CreateOrderInput{
		UserID: uuid.MustParse(p.UserID),
		Lines:  lines,
		Status: enums.OrderStatus(p.Status),
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderResponse struct {
	Success bool          `json:"success"`
	Order   *models.Order `json:"order"`
}

type orderStatusResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

type orderListResponse struct {
	Success bool           `json:"success"`
	Orders  []models.Order `json:"orders"`
}

// OrdersCreate materializes a checkout payload into a persisted order.
func OrdersCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponse{Success: true, Order: order})
	}
}

// OrdersUpdateStatus overwrites the order status. The route sits behind the
// session gate.
func OrdersUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, enums.OrderStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderStatusResponse{
			Success: true,
			Message: "order status updated",
			Order:   order,
		})
	}
}

// OrdersListAll returns every order with its lines and user identity. The
// route sits behind the session gate.
func OrdersListAll(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderListResponse{Success: true, Orders: list})
	}
}

// OrdersListForUser returns the caller-specified user's orders, newest first.
func OrdersListForUser(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseQueryUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderListResponse{Success: true, Orders: list})
	}
}
