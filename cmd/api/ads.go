package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/domain/ads"
	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/Gwonyeong/doll-backend/internal/geo"
	"github.com/Gwonyeong/doll-backend/internal/params"
	"github.com/Gwonyeong/doll-backend/internal/uploads"
)

// Create Ad Payload
type createAdPayload struct {
	StoreID      int64      `form:"store_id" validate:"required,gt=0"`
	Title        string     `form:"title" validate:"required,max=255"`
	Description  *string    `form:"description" validate:"omitempty,max=1000"`
	Link         *string    `form:"link" validate:"omitempty,url"`
	DisplayOrder int        `form:"display_order" validate:"min=0"`
	Active       bool       `form:"active"`
	StartsAt     *time.Time `form:"starts_at"`
	EndsAt       *time.Time `form:"ends_at"`
	// We will get imageURl after uploading to cloudinary
}

// Update Ad Payload
type updateAdPayload struct {
	Title        *string    `form:"title" validate:"omitempty,max=255"`
	Description  *string    `form:"description" validate:"omitempty,max=1000"`
	Link         *string    `form:"link" validate:"omitempty,url"`
	Active       *bool      `form:"active"`
	DisplayOrder *int       `form:"display_order" validate:"omitempty,min=0"`
	EndsAt       *time.Time `form:"ends_at"`
}

type AdStore struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	IsApproximate bool    `json:"is_approximate"`
}

// ActiveAdView is an ad as the app carousel shows it.
type ActiveAdView struct {
	ads.Ad
	Store AdStore `json:"store"`
}

func newActiveAdView(a ads.ActiveAd) ActiveAdView {
	pos := geo.ConvertString(a.CoordX, a.CoordY)
	return ActiveAdView{
		Ad: a.Ad,
		Store: AdStore{
			ID:            a.StoreID,
			Name:          a.StoreName,
			Address:       a.StoreAddress,
			Lat:           pos.Coordinate.Lat,
			Lng:           pos.Coordinate.Lng,
			IsApproximate: pos.Defaulted,
		},
	}
}

// getActiveAdsHandler godoc
//
//	@Summary		Get active ads
//	@Description	Active ads inside their display window, with the promoted store's coordinate.
//	@Tags			ads
//	@Produce		json
//	@Success		200	{object}	map[string][]ActiveAdView	"Active ads"
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Router			/ads/active [get]
func (app *application) getActiveAdsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	active, err := app.store.Ads.GetActiveAds(ctx, time.Now())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	views := make([]ActiveAdView, 0, len(active))
	ids := make([]int64, 0, len(active))
	for _, a := range active {
		views = append(views, newActiveAdView(a))
		ids = append(ids, a.ID)
	}

	if len(ids) > 0 {
		app.background(func(ctx context.Context) {
			if err := app.store.Ads.IncrementImpressions(ctx, ids); err != nil {
				app.logger.Warnw("ad impressions not recorded", "error", err)
			}
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string][]ActiveAdView{"ads": views}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// recordAdClickHandler godoc
//
//	@Summary		Track ad click
//	@Tags			ads
//	@Param			adID	path	int	true	"Ad ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Router			/ads/{adID}/click [post]
func (app *application) recordAdClickHandler(w http.ResponseWriter, r *http.Request) {
	adID, err := idParam(r, "adID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Ads.IncrementClicks(r.Context(), adID); err != nil {
		if errors.Is(err, ads.ErrAdNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AdListResponse struct {
	Ads        []ads.Ad          `json:"ads"`
	Pagination params.Pagination `json:"pagination"`
}

// listAdsHandler godoc
//
//	@Summary		Get all ads (Admin)
//	@Tags			admin
//	@Produce		json
//	@Param			page	query		int	false	"Page (default 1)"
//	@Param			limit	query		int	false	"Page size (default 15, max 30)"
//	@Success		200		{object}	AdListResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		BasicAuth
//	@Router			/admin/ads [get]
func (app *application) listAdsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	list, total, err := app.store.Ads.GetAllAds(r.Context(), p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, AdListResponse{Ads: list, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func formString(r *http.Request, key string) *string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return &v
	}
	return nil
}

func formTime(r *http.Request, key string) (*time.Time, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339", key)
	}
	return &t, nil
}

// createAdHandler godoc
//
//	@Summary		Create an ad (Admin)
//	@Tags			admin
//	@Accept			mpfd
//	@Produce		json
//	@Param			store_id		formData	int		true	"Promoted store"
//	@Param			title			formData	string	true	"Ad title"
//	@Param			description		formData	string	false	"Ad description"
//	@Param			link			formData	string	false	"Ad link URL"
//	@Param			display_order	formData	int		false	"Display order"
//	@Param			active			formData	boolean	false	"Active"
//	@Param			starts_at		formData	string	false	"RFC3339"
//	@Param			ends_at			formData	string	false	"RFC3339"
//	@Param			ad_image		formData	file	true	"Ad image file (max size: 5MB)"
//	@Success		201				{object}	ads.Ad	"Ad created successfully"
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error	"Store not found"
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		BasicAuth
//	@Router			/admin/ads [post]
func (app *application) createAdHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(5 << 20); err != nil { // 5 MB
		app.badRequestResponse(w, r, errors.New("unable to parse form, file size limit is 5MB"))
		return
	}

	var payload createAdPayload
	var err error
	if payload.StoreID, err = strconv.ParseInt(strings.TrimSpace(r.FormValue("store_id")), 10, 64); err != nil {
		app.badRequestResponse(w, r, errors.New("store_id must be a number"))
		return
	}
	payload.Title = strings.TrimSpace(r.FormValue("title"))
	payload.Description = formString(r, "description")
	payload.Link = formString(r, "link")
	if v := strings.TrimSpace(r.FormValue("display_order")); v != "" {
		if payload.DisplayOrder, err = strconv.Atoi(v); err != nil {
			app.badRequestResponse(w, r, errors.New("display_order must be a number"))
			return
		}
	}
	if v := strings.TrimSpace(r.FormValue("active")); v != "" {
		if payload.Active, err = strconv.ParseBool(v); err != nil {
			app.badRequestResponse(w, r, errors.New("active must be a boolean"))
			return
		}
	}
	if payload.StartsAt, err = formTime(r, "starts_at"); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.EndsAt, err = formTime(r, "ends_at"); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(&payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.store.Stores.GetByID(ctx, payload.StoreID); err != nil {
		if errors.Is(err, stores.ErrStoreNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	file, _, err := r.FormFile("ad_image")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("ad image is required"))
		return
	}
	defer file.Close()

	imageURL, err := app.images.Upload(ctx, file, uploads.FolderAds)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("failed to upload image: %w", err))
		return
	}

	ad, err := app.store.Ads.CreateAd(ctx, ads.CreateAdRequest{
		StoreID:      payload.StoreID,
		Title:        payload.Title,
		Description:  payload.Description,
		ImageURL:     imageURL,
		Link:         payload.Link,
		DisplayOrder: payload.DisplayOrder,
		Active:       payload.Active,
		StartsAt:     payload.StartsAt,
		EndsAt:       payload.EndsAt,
	})
	if err != nil {
		// Clean up uploaded image on failure
		uploads.Cleanup(ctx, app.images, []string{imageURL})
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, ad); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateAdHandler godoc
//
//	@Summary		Update an ad (Admin)
//	@Description	Updates an ad; a new ad_image replaces the old one.
//	@Tags			admin
//	@Accept			mpfd
//	@Produce		json
//	@Param			adID			path		int		true	"Ad ID"
//	@Param			title			formData	string	false	"Ad title"
//	@Param			description		formData	string	false	"Ad description"
//	@Param			link			formData	string	false	"Ad link URL"
//	@Param			active			formData	boolean	false	"Ad active status"
//	@Param			display_order	formData	int		false	"Display order"
//	@Param			ends_at			formData	string	false	"RFC3339"
//	@Param			ad_image		formData	file	false	"New ad image file (max size: 5MB)"
//	@Success		200				{object}	ads.Ad
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error
//	@Security		BasicAuth
//	@Router			/admin/ads/{adID} [patch]
func (app *application) updateAdHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	adID, err := idParam(r, "adID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	current, err := app.store.Ads.GetAdByID(ctx, adID)
	if err != nil {
		if errors.Is(err, ads.ErrAdNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		app.badRequestResponse(w, r, errors.New("unable to parse form, file size limit is 5MB"))
		return
	}

	var payload updateAdPayload
	payload.Title = formString(r, "title")
	payload.Description = formString(r, "description")
	payload.Link = formString(r, "link")
	if v := r.FormValue("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("active must be a boolean"))
			return
		}
		payload.Active = &active
	}
	if v := r.FormValue("display_order"); v != "" {
		order, err := strconv.Atoi(v)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("display_order must be a number"))
			return
		}
		payload.DisplayOrder = &order
	}
	if payload.EndsAt, err = formTime(r, "ends_at"); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(&payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req := ads.UpdateAdRequest{
		Title:        payload.Title,
		Description:  payload.Description,
		Link:         payload.Link,
		Active:       payload.Active,
		DisplayOrder: payload.DisplayOrder,
		EndsAt:       payload.EndsAt,
	}

	// optional image replacement
	var newImageURL string
	if file, _, err := r.FormFile("ad_image"); err == nil {
		defer file.Close()
		newImageURL, err = app.images.Upload(ctx, file, uploads.FolderAds)
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("failed to upload image: %w", err))
			return
		}
		req.ImageURL = &newImageURL
	}

	ad, err := app.store.Ads.UpdateAd(ctx, adID, req)
	if err != nil {
		if newImageURL != "" {
			uploads.Cleanup(ctx, app.images, []string{newImageURL})
		}
		if errors.Is(err, ads.ErrAdNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if newImageURL != "" && current.ImageURL != "" {
		old := current.ImageURL
		app.background(func(ctx context.Context) {
			if err := app.images.Destroy(ctx, old); err != nil {
				app.logger.Errorw("cloudinary delete failed", "ad_id", adID, "url", old, "err", err)
			}
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, ad); err != nil {
		app.internalServerError(w, r, err)
	}
}

// toggleAdHandler godoc
//
//	@Summary		Toggle ad status (Admin)
//	@Tags			admin
//	@Produce		json
//	@Param			adID	path		int	true	"Ad ID"
//	@Success		200		{object}	ads.Ad
//	@Failure		404		{object}	error
//	@Security		BasicAuth
//	@Router			/admin/ads/{adID}/toggle [patch]
func (app *application) toggleAdHandler(w http.ResponseWriter, r *http.Request) {
	adID, err := idParam(r, "adID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ad, err := app.store.Ads.ToggleAdStatus(r.Context(), adID)
	if err != nil {
		if errors.Is(err, ads.ErrAdNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, ad); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteAdHandler godoc
//
//	@Summary		Delete an ad (Admin)
//	@Tags			admin
//	@Param			adID	path	int	true	"Ad ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/admin/ads/{adID} [delete]
func (app *application) deleteAdHandler(w http.ResponseWriter, r *http.Request) {
	adID, err := idParam(r, "adID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ad, err := app.store.Ads.GetAdByID(r.Context(), adID)
	if err != nil {
		if errors.Is(err, ads.ErrAdNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Ads.DeleteAd(r.Context(), adID); err != nil {
		if errors.Is(err, ads.ErrAdNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if ad.ImageURL != "" {
		img := ad.ImageURL
		app.background(func(ctx context.Context) {
			if err := app.images.Destroy(ctx, img); err != nil {
				app.logger.Errorw("cloudinary delete failed", "ad_id", adID, "url", img, "err", err)
			}
		})
	}

	w.WriteHeader(http.StatusNoContent)
}
