package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"interviewnotes/api/internal/export"
	"interviewnotes/api/internal/interaction"
	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/view"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, notes.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, notes.ErrEmptyContent):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", notes.ErrEmptyContent.Error(), nil
	case errors.Is(err, interaction.ErrEmptySelection):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", interaction.ErrEmptySelection.Error(), nil
	case errors.Is(err, view.ErrAnchorNotInTranscript):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", view.ErrAnchorNotInTranscript.Error(), nil
	case errors.Is(err, view.ErrBusy):
		return http.StatusConflict, "BUSY", view.ErrBusy.Error(), nil
	case errors.Is(err, export.ErrContentUnavailable):
		return http.StatusNotFound, "EXPORT_CONTENT_UNAVAILABLE", "Transcript unavailable for export", nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this server", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
