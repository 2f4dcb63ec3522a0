package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Gwonyeong/doll-backend/internal/domain/reviews"
	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/Gwonyeong/doll-backend/internal/domain/unlocks"
	"github.com/Gwonyeong/doll-backend/internal/notifications"
	"github.com/Gwonyeong/doll-backend/internal/params"
	"github.com/Gwonyeong/doll-backend/internal/reviewgate"
	"github.com/Gwonyeong/doll-backend/internal/uploads"
)

const (
	maxReviewImages = 5
	maxPrizeImages  = 3
)

type ReviewListResponse struct {
	Reviews       []reviewgate.GatedReview `json:"reviews"`
	IsUnlocked    bool                     `json:"is_unlocked"`
	TotalReviews  int                      `json:"total_reviews"`
	AverageRating float64                  `json:"average_rating"`
	Pagination    params.Pagination        `json:"pagination"`
}

// listStoreReviewsHandler godoc
//
//	@Summary		List store reviews
//	@Description	Reviews in the requested order. Until the viewer unlocks the store only the first review is readable; the rest keep rating and author but lose text, tags and photos.
//	@Tags			reviews
//	@Produce		json
//	@Param			storeID	path		int		true	"Store ID"
//	@Param			sort	query		string	false	"latest (default) or rating"
//	@Param			page	query		int		false	"Page (default 1)"
//	@Param			limit	query		int		false	"Page size (default 15, max 30)"
//	@Success		200		{object}	ReviewListResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	error	"Invalid token"
//	@Failure		404		{object}	error
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID}/reviews [get]
func (app *application) listStoreReviewsHandler(w http.ResponseWriter, r *http.Request) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
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

	q := r.URL.Query()
	p := params.ParsePagination(q)
	sort := params.ParseSort(q, reviews.SortLatest, reviews.SortRating)
	viewer := viewerFromRequest(r)

	unlocked, err := reviewgate.ResolveUnlocked(r.Context(), app.store.Unlocks, viewer, storeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	list, total, err := app.store.Reviews.ListByStore(r.Context(), reviews.ListQuery{
		StoreID: storeID,
		Sort:    sort,
		Limit:   p.Limit,
		Offset:  p.Offset,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	stats, err := app.store.Reviews.GetStats(r.Context(), storeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	resp := ReviewListResponse{
		Reviews:       reviewgate.GateFrom(list, viewer, unlocked, p.Offset),
		IsUnlocked:    unlocked,
		TotalReviews:  stats.Total,
		AverageRating: stats.Average,
		Pagination:    p,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateReviewPayload struct {
	Rating   int      `validate:"required,min=1,max=5"`
	Content  string   `validate:"required,min=5,max=1000"`
	Tags     []string `validate:"max=5,dive,review_tag"`
	UserName string   `validate:"omitempty,max=30"`
}

// createReviewHandler godoc
//
//	@Summary		Create review
//	@Description	Posts a review. Signed-in users are the author; anonymous reviews need user_name.
//	@Tags			reviews
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			storeID			path		int		true	"Store ID"
//	@Param			rating			formData	int		true	"1 to 5"
//	@Param			content			formData	string	true	"Review text"
//	@Param			tags			formData	[]string	false	"Up to 5 tags"
//	@Param			user_name		formData	string	false	"Display name for anonymous reviews"
//	@Param			cf_turnstile_response	formData	string	false	"Turnstile token, required for anonymous reviews in production"
//	@Param			images			formData	file	false	"Store photos (max 5)"
//	@Param			prize_images	formData	file	false	"Prize photos (max 3)"
//	@Success		201				{object}	reviewgate.GatedReview
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := parseMultipart(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	rating, err := strconv.Atoi(strings.TrimSpace(r.FormValue("rating")))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("rating must be a number"))
		return
	}

	payload := CreateReviewPayload{
		Rating:   rating,
		Content:  strings.TrimSpace(r.FormValue("content")),
		Tags:     cleanTags(r.MultipartForm.Value["tags"]),
		UserName: strings.TrimSpace(r.FormValue("user_name")),
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	if user == nil {
		if payload.UserName == "" {
			app.badRequestResponse(w, r, errors.New("user_name is required for anonymous reviews"))
			return
		}
		if err := app.checkAnonymousWrite(r); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	images, err := formFiles(r, "images", maxReviewImages)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	prizeImages, err := formFiles(r, "prize_images", maxPrizeImages)
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

	imageURLs, err := uploads.UploadAll(r.Context(), app.images, images, uploads.FolderReviews)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	prizeURLs, err := uploads.UploadAll(r.Context(), app.images, prizeImages, uploads.FolderPrizes)
	if err != nil {
		uploads.Cleanup(r.Context(), app.images, imageURLs)
		app.internalServerError(w, r, err)
		return
	}

	review := &reviews.Review{
		StoreID:        storeID,
		Rating:         payload.Rating,
		Content:        payload.Content,
		Tags:           payload.Tags,
		ImageURLs:      imageURLs,
		PrizeImageURLs: prizeURLs,
		UserName:       payload.UserName,
	}
	if user != nil {
		review.UserID = &user.ID
		review.UserName = user.Nickname
		review.AvatarURL = user.ProfilePictureURL
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		uploads.Cleanup(r.Context(), app.images, append(imageURLs, prizeURLs...))
		app.internalServerError(w, r, err)
		return
	}

	app.notifySlack(notifications.NewReviewMessage(store.Name, review.Rating, review.UserName))
	app.notifyFavoriters(store.ID, store.Name, review.UserID)

	// the author always reads their own review in full
	out := reviewgate.Gate([]reviews.Review{*review}, viewerFromRequest(r), true)[0]
	if err := app.jsonResponse(w, http.StatusCreated, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) notifyFavoriters(storeID int64, storeName string, authorID *int64) {
	if app.push == nil {
		return
	}
	app.background(func(ctx context.Context) {
		n, err := notifications.SendNewReviewToFavoriters(ctx, app.push, app.store.Stores, app.store.PushTokens, storeID, storeName, authorID)
		if err != nil {
			app.logger.Warnw("review push failed", "store_id", storeID, "error", err)
			return
		}
		if n > 0 {
			app.logger.Infow("review push sent", "store_id", storeID, "messages", n)
		}
	})
}

// cleanTags trims tags and drops empty or repeated ones.
func cleanTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := map[string]bool{}
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

type UpdateReviewPayload struct {
	Rating  *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Content *string  `json:"content" validate:"omitempty,min=5,max=1000"`
	Tags    []string `json:"tags" validate:"omitempty,max=5,dive,review_tag"`
}

// reviewForStore loads reviewID and checks it belongs to the store in the path.
func (app *application) reviewForStore(r *http.Request) (*reviews.Review, error) {
	storeID, err := idParam(r, "storeID")
	if err != nil {
		return nil, err
	}
	reviewID, err := idParam(r, "reviewID")
	if err != nil {
		return nil, err
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		return nil, err
	}
	if review.StoreID != storeID {
		return nil, reviews.ErrNotFound
	}
	return review, nil
}

func (app *application) reviewErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var invalid errInvalidID
	switch {
	case errors.As(err, &invalid):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, reviews.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, reviews.ErrNotOwner):
		app.forbiddenResponse(w, r)
	default:
		app.internalServerError(w, r, err)
	}
}

// updateReviewHandler godoc
//
//	@Summary		Update review
//	@Description	Only the author may edit a review.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			storeID		path		int					true	"Store ID"
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		UpdateReviewPayload	true	"Fields to change"
//	@Success		200			{object}	reviewgate.GatedReview
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID}/reviews/{reviewID} [patch]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	review, err := app.reviewForStore(r)
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}
	if !review.IsAuthoredBy(user.ID) {
		app.forbiddenResponse(w, r)
		return
	}

	var payload UpdateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Content != nil {
		trimmed := strings.TrimSpace(*payload.Content)
		payload.Content = &trimmed
	}
	if payload.Tags != nil {
		payload.Tags = cleanTags(payload.Tags)
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.store.Reviews.Update(r.Context(), review.ID, user.ID, reviews.UpdateInput{
		Rating:  payload.Rating,
		Content: payload.Content,
		Tags:    payload.Tags,
	})
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	out := reviewgate.Gate([]reviews.Review{*updated}, reviewgate.Authenticated(user.ID), true)[0]
	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete review
//	@Description	Only the author may delete a review.
//	@Tags			reviews
//	@Param			storeID		path	int	true	"Store ID"
//	@Param			reviewID	path	int	true	"Review ID"
//	@Success		204
//	@Failure		403	{object}	error
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID}/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	review, err := app.reviewForStore(r)
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), review.ID, user.ID); err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	app.destroyReviewImages(review)
	w.WriteHeader(http.StatusNoContent)
}

// adminDeleteReviewHandler godoc
//
//	@Summary		Delete any review
//	@Tags			admin
//	@Param			reviewID	path	int	true	"Review ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/admin/reviews/{reviewID} [delete]
func (app *application) adminDeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := idParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	if err := app.store.Reviews.AdminDelete(r.Context(), reviewID); err != nil {
		app.reviewErrorResponse(w, r, err)
		return
	}

	app.destroyReviewImages(review)
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) destroyReviewImages(review *reviews.Review) {
	urls := append(append([]string{}, review.ImageURLs...), review.PrizeImageURLs...)
	if len(urls) == 0 {
		return
	}
	app.background(func(ctx context.Context) {
		for _, u := range urls {
			if err := app.images.Destroy(ctx, u); err != nil {
				app.logger.Errorw("cloudinary delete failed", "review_id", review.ID, "url", u, "err", err)
			}
		}
	})
}

type UnlockResponse struct {
	IsUnlocked bool           `json:"is_unlocked"`
	Created    bool           `json:"created"`
	Unlock     unlocks.Record `json:"unlock"`
}

// unlockReviewsHandler godoc
//
//	@Summary		Unlock store reviews
//	@Description	Called after the user watched a rewarded ad. Unlocking twice is harmless and returns the original record.
//	@Tags			reviews
//	@Produce		json
//	@Param			storeID	path		int	true	"Store ID"
//	@Success		201		{object}	UnlockResponse	"Newly unlocked"
//	@Success		200		{object}	UnlockResponse	"Already unlocked"
//	@Failure		401		{object}	error
//	@Failure		404		{object}	error
//	@Failure		429		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID}/reviews/unlock [post]
func (app *application) unlockReviewsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	storeID, err := idParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
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

	rec, created, err := app.store.Unlocks.Unlock(r.Context(), user.ID, storeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	if err := app.jsonResponse(w, status, UnlockResponse{IsUnlocked: true, Created: created, Unlock: rec}); err != nil {
		app.internalServerError(w, r, err)
	}
}
