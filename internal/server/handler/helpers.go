// Package handler implements the HTTP surface: one handler type per
// resource group, each a thin adapter translating requests into calls on the
// orchestrator, catalog, and run store, and domain errors into a uniform
// {"detail": string} JSON error shape.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"detail":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeDetail writes the uniform {"detail": string} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError classifies err by its domain.ErrorKind and writes the matching
// HTTP status and detail body. Errors that carry no CodedError are mapped
// by the domain sentinel they wrap (ErrNotFound, ErrConflict, and the
// upstream-unavailability sentinels); anything else is an unclassified 500.
func writeError(w http.ResponseWriter, err error) {
	var coded *domain.CodedError
	if errors.As(err, &coded) {
		writeDetail(w, statusForKind(coded.Kind), coded.Error())
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeDetail(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrTimeout), errors.Is(err, domain.ErrUpstreamUnavailable):
		writeDetail(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRateLimited, domain.KindTimeout, domain.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindInvariant, domain.KindParse, domain.KindConfig, domain.KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// parseListOpts extracts standard pagination parameters from the query
// string. Defaults: page=1, page_size=20 (max 200).
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	pageSize := 20
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > 200 {
		pageSize = 200
	}

	return domain.ListOpts{Page: page, PageSize: pageSize}
}

func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

func parseRunID(r *http.Request) (int64, error) {
	return strconv.ParseInt(pathParam(r, "id"), 10, 64)
}

func strategyParam(v string, fallback domain.StrategyType) domain.StrategyType {
	if v == "" {
		return fallback
	}
	return domain.StrategyType(v)
}

func modeParam(v string, fallback domain.ExecutionMode) domain.ExecutionMode {
	if v == "" {
		return fallback
	}
	return domain.ExecutionMode(v)
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
