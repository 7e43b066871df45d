// Package httpjson holds the JSON response envelope and strict request
// decoding shared by the API handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ErrEmptyBody is returned by Decode when the request carries no body.
var ErrEmptyBody = errors.New("empty body")

// ErrTrailingData is returned by Decode when more than one JSON value is sent.
var ErrTrailingData = errors.New("extra data after JSON object")

// APIError is the body of an error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the `{"error":{...}}` envelope.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Write encodes v with status. Responses are never cached.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the error envelope.
func Error(w http.ResponseWriter, status int, code, msg string) {
	Write(w, status, ErrorResponse{Error: APIError{Code: code, Message: msg}})
}

// Decode binds one JSON object from r into dst, rejecting unknown fields and
// bodies over maxBytes. A value of the wrong JSON type surfaces as
// *json.UnmarshalTypeError with dst filled as far as possible.
func Decode(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingData
	}
	return nil
}

// Redirect answers 302 to location without caching.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, location, http.StatusFound)
}
