package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/internal/ldm/filter"
	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/pkg/its"
)

// ObjectView is the JSON rendering of one stored object.
type ObjectView struct {
	Type            its.TypeTag `json:"type"`
	Key             string      `json:"key"`
	Timestamp       int64       `json:"timestamp"`
	TimeValidityMs  int64       `json:"timeValidityMs"`
	Latitude        float64     `json:"latitude"`
	Longitude       float64     `json:"longitude"`
	RelevanceRadius float64     `json:"relevanceRadius,omitempty"`
	Payload         any         `json:"payload"`
}

type ObjectsResponse struct {
	Result  string       `json:"result"`
	Count   int          `json:"count"`
	Objects []ObjectView `json:"objects"`
}

type ErrorResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

type RegistrationView struct {
	ApplicationID string   `json:"applicationID"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
}

type RegistrationsResponse struct {
	Result        string             `json:"result"`
	Registrations []RegistrationView `json:"registrations"`
}

// handleObjects serves GET /v1/objects.
//
// Query parameters:
//
//	types    comma-separated message types, defaults to all
//	filter   "path op value" clauses joined by AND
//	order    "path [asc|desc]" keys, comma-separated
//	limit    result cap
func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	req := &ldm.QueryRequest{ApplicationID: ApplicationID}

	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			tag, err := its.ParseTypeTag(part)
			if err != nil {
				writeError(w, model.ErrInvalidParameters, err.Error())
				return
			}
			req.Types = append(req.Types, tag)
		}
	} else {
		req.Types = its.AllTags()
	}

	if raw := r.URL.Query().Get("filter"); raw != "" {
		expr, err := filter.Parse(raw)
		if err != nil {
			writeError(w, model.ErrInvalidParameters, err.Error())
			return
		}
		req.Filter = expr
	}

	if raw := r.URL.Query().Get("order"); raw != "" {
		order, err := filter.ParseOrder(raw)
		if err != nil {
			writeError(w, model.ErrInvalidParameters, err.Error())
			return
		}
		req.Order = order
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, model.ErrInvalidParameters, "limit must be a non-negative integer")
			return
		}
		req.Priority = limit
	}

	objs, err := s.ldm.Query(req)
	if err != nil {
		writeError(w, err, err.Error())
		return
	}

	resp := ObjectsResponse{
		Result:  model.CodeOf(nil).String(),
		Count:   len(objs),
		Objects: make([]ObjectView, 0, len(objs)),
	}
	for _, o := range objs {
		resp.Objects = append(resp.Objects, ObjectView{
			Type:            o.Type,
			Key:             o.Key,
			Timestamp:       o.Timestamp.UnixMilli(),
			TimeValidityMs:  o.TimeValidity.Milliseconds(),
			Latitude:        o.Location.Latitude,
			Longitude:       o.Location.Longitude,
			RelevanceRadius: o.RelevanceRadius,
			Payload:         o.Payload,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRegistrations serves GET /v1/registrations.
func (s *Server) handleRegistrations(w http.ResponseWriter, _ *http.Request) {
	resp := RegistrationsResponse{
		Result:        model.CodeOf(nil).String(),
		Registrations: []RegistrationView{},
	}
	for _, p := range s.ldm.Providers() {
		resp.Registrations = append(resp.Registrations, RegistrationView{
			ApplicationID: p.ApplicationID,
			Role:          "provider",
			Permissions:   tagStrings(p.Permissions.Tags()),
		})
	}
	for _, c := range s.ldm.Consumers() {
		resp.Registrations = append(resp.Registrations, RegistrationView{
			ApplicationID: c.ApplicationID,
			Role:          "consumer",
			Permissions:   tagStrings(c.Permissions.Tags()),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func tagStrings(tags []its.TypeTag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}

func writeError(w http.ResponseWriter, err error, msg string) {
	code := model.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case model.ResultInvalidParameters:
		status = http.StatusBadRequest
	case model.ResultNotRegistered, model.ResultPermissionDenied:
		status = http.StatusForbidden
	}
	writeJSON(w, status, ErrorResponse{Result: code.String(), Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
