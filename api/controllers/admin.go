package controllers

import (
	"net/http"
	"strings"

	"github.com/cliffindus/marketplace-backend/api/responses"
	"github.com/cliffindus/marketplace-backend/api/validators"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	"github.com/cliffindus/marketplace-backend/internal/orders"
	"github.com/cliffindus/marketplace-backend/internal/users"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
)

// AdminUserVerify returns a handler that sets or clears a user's verified
// flag depending on the fixed value.
func AdminUserVerify(service users.Service, verified bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := service.SetVerification(r.Context(), identity.FromContext(r.Context()), userID, verified)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// UserGet returns a user profile. The service allows self-reads and admin
// reads; everything else comes back as forbidden.
func UserGet(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := service.Get(r.Context(), identity.FromContext(r.Context()), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

func AdminUpgradeList(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.UpgradeStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseUpgradeStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			status = &parsed
		}

		rows, err := service.ListUpgrades(r.Context(), identity.FromContext(r.Context()), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.UpgradesFromModels(rows))
	}
}

type upgradeDecisionRequest struct {
	Approve bool    `json:"approve"`
	Comment *string `json:"comment,omitempty"`
}

func AdminUpgradeDecide(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input upgradeDecisionRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decided, err := service.DecideUpgrade(r.Context(), identity.FromContext(r.Context()), requestID, input.Approve, input.Comment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.UpgradeFromModel(decided))
	}
}

func AdminOrderStats(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := service.Stats(r.Context(), identity.FromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// UpgradeRequest lets an authenticated non-admin ask for a seller role.
func UpgradeRequest(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input users.UpgradeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := service.RequestUpgrade(r.Context(), identity.FromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, users.UpgradeFromModel(request))
	}
}
