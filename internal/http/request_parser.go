package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"ledger/internal/core"
)

var errBadRequest = errors.New("bad request")

// ParseCriteria reads filter criteria from the query string: start, end,
// kind, mode and q.
func ParseCriteria(r *http.Request) (core.Criteria, error) {
	q := r.URL.Query()
	return core.ParseCriteria(q.Get("start"), q.Get("end"), q.Get("kind"), q.Get("mode"), q.Get("q"))
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// importBody returns the CSV payload of an import request: either the raw
// body or the "file" part of a multipart form.
func importBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, func() {}, nil
	}
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid multipart body: %v", errBadRequest, err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing file part: %v", errBadRequest, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}
