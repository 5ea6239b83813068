package handler

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"survivor-api/internal/domain"
	"survivor-api/internal/middleware"
	"survivor-api/pkg/errors"
	"survivor-api/pkg/logger"
)

// maxBodyBytes caps request bodies; every payload here is a handful of fields
const maxBodyBytes = 64 << 10

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError renders err in the ErrorResponse envelope. Errors that are not AppErrors are
// reported as internal and never leak their text.
func respondError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	requestID := middleware.RequestIDFromContext(r.Context())
	entry := log.WithError(err).WithFields(map[string]interface{}{
		"request_id": requestID,
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     appErr.StatusCode,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	if appErr.Retryable {
		w.Header().Set("Retry-After", "30")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Rule = appErr.Rule
	response.Error.Retryable = appErr.Retryable
	response.Error.Details = appErr.Details
	response.Error.RequestID = requestID
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewInvalidArgumentError("Invalid request body").WithDetail("cause", err.Error())
	}
	return nil
}

// currentUser returns the authenticated caller or an authentication error
func currentUser(r *http.Request) (*domain.UserProfile, error) {
	user := middleware.UserFromContext(r.Context())
	if user == nil || user.Sub == "" {
		return nil, errors.NewAuthenticationError("Authentication required")
	}
	return user, nil
}

// queryInt parses an optional non-negative integer query parameter; absent means 0
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.NewInvalidArgumentError(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return v, nil
}

func generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}
