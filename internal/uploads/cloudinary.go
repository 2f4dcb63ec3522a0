// Package uploads stores user and admin images on Cloudinary.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const (
	FolderStores  = "doll/stores"
	FolderReviews = "doll/reviews"
	FolderPrizes  = "doll/prizes"
	FolderAds     = "doll/ads"
)

// ImageStore uploads and removes images.
type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
	Destroy(ctx context.Context, imageURL string) error
}

type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cld *cloudinary.Cloudinary) *Cloudinary {
	return &Cloudinary{cld: cld}
}

// Upload stores file under folder with a random public ID and returns the
// secure URL.
func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:    folder,
		PublicID:  uuid.NewString(),
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, imageURL string) error {
	publicID, err := PublicIDFromURL(imageURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete image from Cloudinary: %w", err)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL turns
// https://res.cloudinary.com/demo/image/upload/v1712/doll/stores/abc.jpg
// into doll/stores/abc.
func PublicIDFromURL(imageURL string) (string, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(parsedURL.Path, "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		if versionSegment.MatchString(rest[0]) {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			break
		}
		id := strings.Join(rest, "/")
		return strings.TrimSuffix(id, path.Ext(id)), nil
	}

	return "", errors.New("failed to extract public ID from URL")
}

// UploadAll uploads every file and returns the URLs in order. Already
// uploaded images are removed when a later one fails.
func UploadAll(ctx context.Context, store ImageStore, files []*multipart.FileHeader, folder string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			Cleanup(ctx, store, urls)
			return nil, fmt.Errorf("open file: %w", err)
		}

		u, err := store.Upload(ctx, f, folder)
		f.Close()
		if err != nil {
			Cleanup(ctx, store, urls)
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// Cleanup removes images best effort.
func Cleanup(ctx context.Context, store ImageStore, urls []string) {
	for _, u := range urls {
		_ = store.Destroy(ctx, u)
	}
}
