package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/report"
	"github.com/mind-engage/mindengage-tka/internal/session"
	"github.com/mind-engage/mindengage-tka/internal/storage"
	syncx "github.com/mind-engage/mindengage-tka/internal/sync"
)

const maxJSONBody = 16 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return b, true
}

// fail maps engine errors onto HTTP status codes.
func fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyScored),
		errors.Is(err, session.ErrNoQuestions):
		return http.StatusConflict
	case errors.Is(err, session.ErrIncompleteLogin),
		errors.Is(err, session.ErrUnknownSubject),
		errors.Is(err, session.ErrPackageRequired),
		errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, session.ErrInvalidOption),
		errors.Is(err, session.ErrScoreOutOfRange),
		errors.Is(err, exam.ErrInvalidQuestion),
		errors.Is(err, exam.ErrInvalidSettings),
		errors.Is(err, syncx.ErrInvalidPayload),
		errors.Is(err, report.ErrMissingColumn),
		errors.Is(err, storage.ErrBadKey),
		errors.Is(err, storage.ErrUnsupportedImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
