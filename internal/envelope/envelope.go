// Package envelope wraps every HTTP response body in a uniform JSON shape:
//
//	{"success": true, "statusCode": 200, "statusMessage": "Ok", "data": {...}}
//
// Failures carry the exception that caused them under data.exception.
package envelope

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/semifinals/users/internal/httpstatus"
)

// Envelope is the body of every response.
type Envelope struct {
	Success       bool   `json:"success"`
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Data          any    `json:"data"`
}

// Exception describes a failure inside an error envelope.
type Exception struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ExceptionData is the data of an error envelope.
type ExceptionData struct {
	Exception Exception `json:"exception"`
}

// Success builds the envelope for a handler result. nil data becomes an
// empty object.
func Success(statusCode int, data any) Envelope {
	if data == nil {
		data = struct{}{}
	}
	return Envelope{
		Success:       httpstatus.IsSuccess(statusCode),
		StatusCode:    statusCode,
		StatusMessage: httpstatus.Message(statusCode),
		Data:          data,
	}
}

// Failure builds the envelope for err, using the status it declares.
func Failure(err error) Envelope {
	e := From(err)
	return Envelope{
		Success:       false,
		StatusCode:    e.Status,
		StatusMessage: httpstatus.Message(e.Status),
		Data: ExceptionData{
			Exception: Exception{Name: e.Name, Message: e.Message},
		},
	}
}

// Write sends data with statusCode. 204 responses have no body.
func Write(w http.ResponseWriter, statusCode int, data any) {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return
	}
	writeJSON(w, statusCode, Success(statusCode, data))
}

// WriteError sends the error envelope for err.
func WriteError(w http.ResponseWriter, err error) {
	env := Failure(err)
	writeJSON(w, env.StatusCode, env)
}

// HandlerFunc returns a status code and a value to wrap, or an error.
type HandlerFunc func(r *http.Request) (int, any, error)

// Handler adapts fn into an http.HandlerFunc that writes envelopes.
func Handler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, data, err := fn(r)
		if err != nil {
			WriteError(w, err)
			return
		}
		Write(w, statusCode, data)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to do.
		_ = err
	}
}

// Decode reads an envelope from a response body. Data is left as raw JSON.
func Decode(body []byte) (Envelope, json.RawMessage, error) {
	var raw struct {
		Envelope
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}, nil, err
	}
	if raw.Data == nil {
		return raw.Envelope, nil, errors.New("envelope has no data")
	}
	return raw.Envelope, raw.Data, nil
}
