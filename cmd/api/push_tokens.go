package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
)

var expoTokenRe = regexp.MustCompile(`^Expo(nent)?PushToken\[[^\]]+\]$`)

// SavePushTokenRequest registers the device that should hear about new reviews
// on favorited stores.
type SavePushTokenRequest struct {
	Token      string          `json:"token" validate:"required,max=255"`
	DeviceInfo json.RawMessage `json:"device_info"`
}

// RemovePushTokenRequest represents the payload for removing a push token
type RemovePushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// BulkRemoveTokensRequest represents the payload for bulk token removal
type BulkRemoveTokensRequest struct {
	Tokens []string `json:"tokens" validate:"required,min=1,dive,required"`
}

// addPushTokenHandler godoc
//
//	@Summary		Save or update a push notification token
//	@Description	Registers an Expo push token (ExponentPushToken[...]) for new-review alerts on favorited stores.
//	@Tags			notifications
//	@Accept			json
//	@Param			payload	body	SavePushTokenRequest	true	"Push token data"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/users/push-tokens [post]
func (app *application) addPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload SavePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Token = strings.TrimSpace(payload.Token)
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if !expoTokenRe.MatchString(payload.Token) {
		app.badRequestResponse(w, r, errors.New("token is not an Expo push token"))
		return
	}

	if err := app.store.PushTokens.AddOrUpdatePushToken(r.Context(), user.ID, payload.Token, payload.DeviceInfo); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// removePushTokenHandler godoc
//
//	@Summary		Remove a push notification token
//	@Tags			notifications
//	@Accept			json
//	@Param			payload	body	RemovePushTokenRequest	true	"Token to remove"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/users/push-tokens [delete]
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload RemovePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.RemovePushToken(r.Context(), user.ID, payload.Token); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// bulkRemovePushTokensHandler godoc
//
//	@Summary		Bulk remove push notification tokens
//	@Description	Deletes tokens Expo reported as unregistered.
//	@Tags			admin
//	@Accept			json
//	@Param			payload	body	BulkRemoveTokensRequest	true	"Tokens to remove"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Security		BasicAuth
//	@Router			/admin/push-tokens [delete]
func (app *application) bulkRemovePushTokensHandler(w http.ResponseWriter, r *http.Request) {
	var payload BulkRemoveTokensRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.RemoveTokensByTokenList(r.Context(), payload.Tokens); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
