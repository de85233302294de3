package controllers

import (
	"net/http"

	"github.com/cliffindus/marketplace-backend/api/responses"
	"github.com/cliffindus/marketplace-backend/internal/checkout"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
)

// Checkout converts the caller's cart into a pending order.
func Checkout(service checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := service.Execute(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
