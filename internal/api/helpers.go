package api

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps JSON request bodies (1 MiB).
const maxBodyBytes = 1 << 20

// maxUploadBytes caps multipart image uploads (10 MiB).
const maxUploadBytes = 10 << 20

// decodeBody reads a JSON request body into dest.
func decodeBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()

	if err := json.UnmarshalRead(body, dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// readUpload extracts the uploaded file from a multipart form. The field
// name is "file" for covers and avatars alike.
func readUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("upload exceeds maximum size of %d bytes", maxUploadBytes)
	}

	return data, nil
}
