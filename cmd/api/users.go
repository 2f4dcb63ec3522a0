package main

import (
	"net/http"
)

// getCurrentUserHandler godoc
//
//	@Summary		Current user
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	users.User
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listUnlocksHandler godoc
//
//	@Summary		Unlocked stores
//	@Description	Stores whose reviews the user has unlocked, newest first.
//	@Tags			users
//	@Produce		json
//	@Success		200	{array}	unlocks.Record
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me/unlocks [get]
func (app *application) listUnlocksHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	records, err := app.store.Unlocks.ListByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, records); err != nil {
		app.internalServerError(w, r, err)
	}
}
