package controllers

import (
	"net/http"

	"github.com/cliffindus/marketplace-backend/api/responses"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/ledger"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
)

func CreditBalance(service ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := service.Balance(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"balance": balance})
	}
}

func CreditHistory(service ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := service.History(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
