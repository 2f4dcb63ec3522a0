package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gwonyeong/doll-backend/internal/domain/reviews"
	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/Gwonyeong/doll-backend/internal/geo"
	"github.com/Gwonyeong/doll-backend/internal/notifications"
	"github.com/Gwonyeong/doll-backend/internal/params"
	"github.com/Gwonyeong/doll-backend/internal/reviewgate"
	"github.com/Gwonyeong/doll-backend/internal/uploads"
)

const maxStorePhotos = 10

// StoreView is a store with its display coordinate.
type StoreView struct {
	stores.Shop
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	IsApproximate bool     `json:"is_approximate"`
	DistanceM     *float64 `json:"distance_m,omitempty"`
}

func newStoreView(s stores.Shop) StoreView {
	pos := s.Position()
	return StoreView{
		Shop:          s,
		Lat:           pos.Coordinate.Lat,
		Lng:           pos.Coordinate.Lng,
		IsApproximate: pos.Defaulted,
	}
}

func (v StoreView) Location() geo.GeoCoordinate {
	return geo.GeoCoordinate{Lat: v.Lat, Lng: v.Lng}
}

func newStoreViews(list []stores.Shop) []StoreView {
	out := make([]StoreView, 0, len(list))
	for _, s := range list {
		out = append(out, newStoreView(s))
	}
	return out
}

type StoreListResponse struct {
	Stores     []StoreView       `json:"stores"`
	Pagination params.Pagination `json:"pagination"`
}

// listStoresHandler godoc
//
//	@Summary		List stores
//	@Description	Paginated store list. With lat and lng only stores within radius meters are returned, nearest first. Stores whose coordinate could not be converted are left out of nearby results.
//	@Tags			stores
//	@Produce		json
//	@Param			q		query		string	false	"Search on name or address"
//	@Param			lat		query		number	false	"Latitude"
//	@Param			lng		query		number	false	"Longitude"
//	@Param			radius	query		number	false	"Radius in meters (default 3000)"
//	@Param			page	query		int		false	"Page (default 1)"
//	@Param			limit	query		int		false	"Page size (default 15, max 30)"
//	@Success		200		{object}	StoreListResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/stores [get]
func (app *application) listStoresHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)
	search := strings.TrimSpace(q.Get("q"))

	nearby, err := params.ParseNearby(q)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if nearby == nil {
		list, total, err := app.store.Stores.List(r.Context(), stores.ListFilter{
			Query:  search,
			Limit:  p.Limit,
			Offset: p.Offset,
		})
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		p.ComputeMeta(total)

		if err := app.jsonResponse(w, http.StatusOK, StoreListResponse{Stores: newStoreViews(list), Pagination: p}); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	all, err := app.store.Stores.ListAll(r.Context(), search)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	placed := make([]StoreView, 0, len(all))
	for _, s := range all {
		v := newStoreView(s)
		if v.IsApproximate {
			continue
		}
		placed = append(placed, v)
	}

	origin := geo.GeoCoordinate{Lat: nearby.Lat, Lng: nearby.Lng}
	near := geo.WithinRadius(placed, origin, nearby.Radius)
	p.ComputeMeta(len(near))

	page := []StoreView{}
	if p.Offset >= 0 && p.Offset < len(near) {
		end := min(p.Offset+p.Limit, len(near))
		page = near[p.Offset:end]
	}
	for i := range page {
		d := geo.DistanceMeters(origin, page[i].Location())
		page[i].DistanceM = &d
	}

	if err := app.jsonResponse(w, http.StatusOK, StoreListResponse{Stores: page, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type StoreDetailResponse struct {
	StoreView
	ReviewStats reviews.Stats `json:"review_stats"`
	IsUnlocked  bool          `json:"is_unlocked"`
}

// getStoreHandler godoc
//
//	@Summary		Get store
//	@Description	Store detail with converted coordinates, review stats and whether the viewer unlocked its reviews.
//	@Tags			stores
//	@Produce		json
//	@Param			storeID	path		int	true	"Store ID"
//	@Success		200		{object}	StoreDetailResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/stores/{storeID} [get]
func (app *application) getStoreHandler(w http.ResponseWriter, r *http.Request) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	store, err := app.store.Stores.GetByID(r.Context(), storeID)
	if err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	stats, err := app.store.Reviews.GetStats(r.Context(), storeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	unlocked, err := reviewgate.ResolveUnlocked(r.Context(), app.store.Unlocks, viewerFromRequest(r), storeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := StoreDetailResponse{
		StoreView:   newStoreView(*store),
		ReviewStats: stats,
		IsUnlocked:  unlocked,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateStorePayload struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Address      string  `json:"address" validate:"required,max=255"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	CoordX       string  `json:"coord_x" validate:"required,numeric"`
	CoordY       string  `json:"coord_y" validate:"required,numeric"`
	OpeningHours *string `json:"opening_hours" validate:"omitempty,max=100"`
	MachineCount int     `json:"machine_count" validate:"gte=0,lte=1000"`
}

// createStoreHandler godoc
//
//	@Summary		Create store
//	@Description	Registers a store. Coordinates are EPSG:5174 meters as published by the registry.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateStorePayload	true	"Store"
//	@Success		201		{object}	StoreView
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		BasicAuth
//	@Router			/admin/stores [post]
func (app *application) createStoreHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateStorePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	exists, err := app.store.Stores.Exists(r.Context(), payload.Name, payload.Address)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if exists {
		app.conflictResponse(w, r, fmt.Errorf("store %q at %q already exists", payload.Name, payload.Address))
		return
	}

	store := &stores.Shop{
		Name:         payload.Name,
		Address:      payload.Address,
		Phone:        payload.Phone,
		CoordX:       payload.CoordX,
		CoordY:       payload.CoordY,
		OpeningHours: payload.OpeningHours,
		MachineCount: payload.MachineCount,
	}
	if err := app.store.Stores.Create(r.Context(), store); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifySlack(notifications.NewStoreMessage(store.Name, store.Address))

	if err := app.jsonResponse(w, http.StatusCreated, newStoreView(*store)); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateStorePayload struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Address      *string `json:"address" validate:"omitempty,min=1,max=255"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	CoordX       *string `json:"coord_x" validate:"omitempty,numeric"`
	CoordY       *string `json:"coord_y" validate:"omitempty,numeric"`
	OpeningHours *string `json:"opening_hours" validate:"omitempty,max=100"`
	MachineCount *int    `json:"machine_count" validate:"omitempty,gte=0,lte=1000"`
}

// updateStoreHandler godoc
//
//	@Summary		Update store
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			storeID	path		int					true	"Store ID"
//	@Param			payload	body		UpdateStorePayload	true	"Fields to change"
//	@Success		200		{object}	StoreView
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Security		BasicAuth
//	@Router			/admin/stores/{storeID} [patch]
func (app *application) updateStoreHandler(w http.ResponseWriter, r *http.Request) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateStorePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	store, err := app.store.Stores.Update(r.Context(), storeID, stores.UpdateInput{
		Name:         payload.Name,
		Address:      payload.Address,
		Phone:        payload.Phone,
		CoordX:       payload.CoordX,
		CoordY:       payload.CoordY,
		OpeningHours: payload.OpeningHours,
		MachineCount: payload.MachineCount,
	})
	if err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, newStoreView(*store)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteStoreHandler godoc
//
//	@Summary		Delete store
//	@Description	Deletes the store, its reviews and favourites, and its photos on Cloudinary.
//	@Tags			admin
//	@Param			storeID	path	int	true	"Store ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/admin/stores/{storeID} [delete]
func (app *application) deleteStoreHandler(w http.ResponseWriter, r *http.Request) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	store, err := app.store.Stores.GetByID(r.Context(), storeID)
	if err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Stores.Delete(r.Context(), storeID); err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	photos := store.ImageURLs
	app.background(func(ctx context.Context) {
		for _, u := range photos {
			if err := app.images.Destroy(ctx, u); err != nil {
				app.logger.Errorw("cloudinary delete failed", "store_id", storeID, "url", u, "err", err)
			}
		}
	})

	w.WriteHeader(http.StatusNoContent)
}

// uploadStorePhotoHandler godoc
//
//	@Summary		Upload store photos
//	@Tags			admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			storeID	path		int		true	"Store ID"
//	@Param			images	formData	file	true	"One or more images"
//	@Success		201		{object}	map[string][]string
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Security		BasicAuth
//	@Router			/admin/stores/{storeID}/photos [post]
func (app *application) uploadStorePhotoHandler(w http.ResponseWriter, r *http.Request) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	files, err := parseImageForm(w, r, maxStorePhotos)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(files) == 0 {
		app.badRequestResponse(w, r, errors.New("at least one image is required"))
		return
	}

	if _, err := app.store.Stores.GetByID(r.Context(), storeID); err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	urls, err := uploads.UploadAll(r.Context(), app.images, files, uploads.FolderStores)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	for i, u := range urls {
		if err := app.store.Stores.AddPhotoURL(r.Context(), storeID, u); err != nil {
			uploads.Cleanup(r.Context(), app.images, urls[i:])
			app.internalServerError(w, r, err)
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusCreated, map[string][]string{"image_urls": urls}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteStorePhotoHandler godoc
//
//	@Summary		Delete store photo
//	@Tags			admin
//	@Param			storeID		path	int		true	"Store ID"
//	@Param			photo_url	query	string	true	"Photo URL"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/admin/stores/{storeID}/photos [delete]
func (app *application) deleteStorePhotoHandler(w http.ResponseWriter, r *http.Request) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	photoURL := strings.TrimSpace(r.URL.Query().Get("photo_url"))
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo_url is required"))
		return
	}

	if err := app.store.Stores.RemovePhotoURL(r.Context(), storeID, photoURL); err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.images.Destroy(r.Context(), photoURL); err != nil {
		app.logger.Errorw("cloudinary delete failed", "store_id", storeID, "url", photoURL, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
