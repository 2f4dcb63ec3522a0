package main

import (
	"fmt"
	"mime/multipart"
	"net/http"
)

const maxUploadBytes = 15 * 1024 * 1024

// parseMultipart caps the body and parses a multipart form.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// formFiles returns the files under key, at most maxFiles of them.
func formFiles(r *http.Request, key string, maxFiles int) ([]*multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[key]
	if len(files) > maxFiles {
		return nil, fmt.Errorf("maximum %d %s allowed", maxFiles, key)
	}
	return files, nil
}

// parseImageForm parses a multipart body and returns the "images" files.
func parseImageForm(w http.ResponseWriter, r *http.Request, maxFiles int) ([]*multipart.FileHeader, error) {
	if err := parseMultipart(w, r); err != nil {
		return nil, err
	}
	return formFiles(r, "images", maxFiles)
}
