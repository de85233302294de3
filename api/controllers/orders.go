package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/cliffindus/marketplace-backend/api/responses"
	"github.com/cliffindus/marketplace-backend/api/validators"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/orders"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
)

func OrderList(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := service.List(r.Context(), identity.FromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func OrderDetail(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := service.Get(r.Context(), identity.FromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ShippingList(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := service.ListShipping(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// OrderTransition returns a handler that moves an order to the fixed target
// status. The ship edge accepts an optional shipping payload; the other edges
// take no body.
func OrderTransition(service orders.Service, target enums.OrderStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var fields orders.ShippingFields
		if target == enums.OrderStatusShipped {
			if err := validators.DecodeJSONBody(r, &fields); err != nil && !isEmptyBody(err) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := service.Transition(r.Context(), identity.FromContext(r.Context()), orderID, target, fields)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
