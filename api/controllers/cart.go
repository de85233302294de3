package controllers

import (
	"net/http"

	"github.com/cliffindus/marketplace-backend/api/responses"
	"github.com/cliffindus/marketplace-backend/api/validators"
	"github.com/cliffindus/marketplace-backend/internal/cart"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
)

type cartEnvelope struct {
	Cart  *models.Cart      `json:"cart"`
	Items []models.CartItem `json:"items"`
}

func CartFetch(service cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, items, err := service.GetOrCreate(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartEnvelope{Cart: row, Items: items})
	}
}

// CartList returns the visibility-scoped cart set. Admins see every cart;
// consumers see their own.
func CartList(service cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carts, err := service.List(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, carts)
	}
}

func CartAddItem(service cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input cart.AddItemInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := service.AddItem(r.Context(), identity.FromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func CartUpdateItem(service cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := service.UpdateItem(r.Context(), identity.FromContext(r.Context()), itemID, input.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CartRemoveItem(service cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := service.RemoveItem(r.Context(), identity.FromContext(r.Context()), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
