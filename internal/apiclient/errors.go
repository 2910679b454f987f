package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/holygrail/holygrail-web/internal/errors"
)

// ErrUnauthorized matches any backend answer with status 401.
var ErrUnauthorized = errors.New("backend rejected credentials")

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
	Method  string
	Path    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Is reports 401 answers as ErrUnauthorized.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Unwrap exposes the application error category for the status.
func (e *Error) Unwrap() error {
	return &apperrors.AppError{
		Code:    apperrors.CodeForStatus(e.Status),
		Message: e.UserMessage(),
	}
}

// UserMessage is the backend's message, or the status text when it sent none.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func newError(req *http.Request, resp *http.Response) *Error {
	e := &Error{
		Status: resp.StatusCode,
		Method: req.Method,
		Path:   req.URL.Path,
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		e.Code = body.Code
		switch {
		case body.Message != "":
			e.Message = body.Message
		case body.Error != "":
			e.Message = body.Error
		case body.Detail != "":
			e.Message = body.Detail
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 512 {
		e.Message = text
	}
	return e
}
