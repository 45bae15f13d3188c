// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package api

import (
	"log/slog"
	"net/http"

	"github.com/minhdang/aegis/internal/platform/constants"
	"github.com/minhdang/aegis/internal/platform/respond"
)

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func() error

	// CheckCache pings the Redis client.
	CheckCache func() error
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health. Answers as long as the process is up; it
// deliberately checks nothing else.
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

// readiness handles GET /ready.
//
// PostgreSQL is the hard dependency: without it no authorization decision can
// be made, so a failed ping flips readiness to 503 and load balancers drain
// the instance. Redis degradation is reported in the checks list but keeps
// the instance ready: the permission cache, denylist, and rate limiter all
// fail open or fall back to direct resolution.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	results := make([]checkResult, 0, 2)
	ready := true

	probe := func(name string, check func() error, critical bool) {
		if check == nil {
			return
		}

		result := checkResult{Name: name, IsOK: true}
		if err := check(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			if critical {
				ready = false
				handler.logger.Error("readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
			} else {
				handler.logger.Warn("readiness_check_degraded", slog.String("dependency", name), slog.Any("error", err))
			}
		}
		results = append(results, result)
	}

	probe("postgres", handler.dependencies.CheckDatabase, true)
	probe("redis", handler.dependencies.CheckCache, false)

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !ready {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	}})
}
