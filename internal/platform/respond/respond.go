// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package respond writes the JSON envelopes every handler answers with.
//
// # Architecture
//
// Handlers never touch encoding/json directly. Success bodies are {"data"},
// listings add {"meta"}, failures are {"error","code","details"}. The code
// field is the machine-readable contract: admin consoles branch on it, and
// it never carries internals. Whatever caused a 500 stays in the logs.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/ctxkey"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Envelopes

// SuccessEnvelope wraps a single resource.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// PaginatedEnvelope wraps a listing page together with its pagination block.
type PaginatedEnvelope struct {
	Data interface{}     `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorEnvelope carries a human-readable message, a stable machine code, and
// optional per-field validation details.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// # Writers

// JSON encodes payload with the given status. Encoding failures are ignored:
// the status line is already on the wire and there is nothing left to send.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes 200 with the resource in the success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes 201 with the new resource in the success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Paginated writes 200 with a listing page and its metadata.
func Paginated(writer http.ResponseWriter, data interface{}, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: metadata})
}

// NoContent writes 204 with an empty body.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

/*
Error translates a Go error into the error envelope.

Description: AppError values map directly to their status and code. Anything
else is a bug escaping a handler: it is logged with its full cause and sent
to the client as a bare INTERNAL_ERROR, because raw error strings can leak
table names, hosts, or credentials.

Parameters:
  - writer: http.ResponseWriter
  - request: *http.Request
  - err: error
*/
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := requestLogger(request)

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID(request)),
		)
		appError = apperr.Internal(err)
	} else if appError.HTTPStatus >= http.StatusInternalServerError {
		// Typed 5xx errors (database down, cache unreachable) still need
		// operator attention even though the client gets a clean envelope.
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", requestID(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

// requestLogger returns the per-request logger, or the process default when
// middleware has not attached one (early panics, tests).
func requestLogger(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// requestID returns the correlation ID assigned by the request-ID middleware.
func requestID(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
