package main

import (
	"errors"
	"net/http"

	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
)

// addFavoriteStoreHandler godoc
//
//	@Summary		Favorite a store
//	@Description	Adds the store to the user's favourites. Favouriting twice is a no-op.
//	@Tags			favorites
//	@Param			storeID	path	int	true	"Store ID"
//	@Success		204
//	@Failure		401	{object}	error
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID}/favorite [post]
func (app *application) addFavoriteStoreHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Stores.AddFavorite(r.Context(), user.ID, storeID); err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// removeFavoriteStoreHandler godoc
//
//	@Summary		Unfavorite a store
//	@Tags			favorites
//	@Param			storeID	path	int	true	"Store ID"
//	@Success		204
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID}/favorite [delete]
func (app *application) removeFavoriteStoreHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Stores.RemoveFavorite(r.Context(), user.ID, storeID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listFavoriteStoresHandler godoc
//
//	@Summary		List favourite stores
//	@Tags			favorites
//	@Produce		json
//	@Success		200	{array}	StoreView
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me/favorites [get]
func (app *application) listFavoriteStoresHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	list, err := app.store.Stores.GetFavoritesByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, newStoreViews(list)); err != nil {
		app.internalServerError(w, r, err)
	}
}
