package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/fullcontext"
	"github.com/haivivi/koe/pkg/kana"
	"github.com/haivivi/koe/pkg/storage"
	"github.com/haivivi/koe/pkg/synthesis"
	"github.com/haivivi/koe/pkg/userdict"
)

// errBadRequest marks malformed request parameters.
var errBadRequest = errors.New("bad request")

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var badRequestErrors = []error{
	errBadRequest,
	audioquery.ErrInvalidQueryShape,
	fullcontext.ErrMalformedLabel,
	fullcontext.ErrTooLongMora,
	fullcontext.ErrBrokenUtterance,
	fullcontext.ErrNoLabels,
	kana.ErrEmptyAccentPhrase,
	kana.ErrAccentOutOfPlace,
	kana.ErrUnknownMoraText,
	kana.ErrMissingAccent,
	kana.ErrMisplacedInterrogativeMark,
	kana.ErrInfiniteLoop,
	userdict.ErrInvalidWord,
	storage.ErrInvalidPath,
}

// statusOf maps an error to its HTTP status. Core failures and analyzer
// errors are 500.
func statusOf(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, userdict.ErrWordNotFound):
		return http.StatusNotFound
	case errors.Is(err, synthesis.ErrNoAnalyzer):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Warn("server: encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= 500 {
		slog.Error("server: request failed", "status", status, "error", err)
	}
	writeErrorCode(w, status, err.Error())
}

func writeErrorCode(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Code: status, Message: msg})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	return data, nil
}

func requireString(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", fmt.Errorf("%w: missing %s", errBadRequest, name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, required bool) (int64, bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		if required {
			return 0, false, fmt.Errorf("%w: missing %s", errBadRequest, name)
		}
		return 0, false, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return n, true, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return b, nil
}

func speakerParam(r *http.Request) (int64, error) {
	n, _, err := queryInt(r, "speaker", true)
	return n, err
}
