// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventhub/internal/aggregate"
	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// RegisterRequest is the body of POST /events/{id}/register.
type RegisterRequest struct {
	RSVPStatus models.RSVPStatus `json:"rsvp_status" validate:"omitempty,oneof=GOING MAYBE NOT_GOING"`
}

// SmartRegisterRequest is the body of POST /events/{id}/smart-register.
type SmartRegisterRequest struct {
	RSVPStatus         models.RSVPStatus         `json:"rsvp_status" validate:"omitempty,oneof=GOING MAYBE NOT_GOING"`
	RegistrationStatus models.RegistrationStatus `json:"registration_status" validate:"omitempty,oneof=REGISTERED PENDING CANCELED WAITLISTED"`
}

// pageRequest carries skip/take after defaults are applied.
type pageRequest struct {
	Skip int `json:"skip" validate:"min=0"`
	Take int `json:"take" validate:"min=0"`
}

// queryParser reads typed query parameters and remembers the first failure.
type queryParser struct {
	q   url.Values
	err error
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{q: r.URL.Query()}
}

func (p *queryParser) fail(field, message string) {
	if p.err == nil {
		p.err = &models.ValidationError{Field: field, Message: message}
	}
}

func (p *queryParser) str(key string) string {
	return strings.TrimSpace(p.q.Get(key))
}

func (p *queryParser) intOr(key string, def int) int {
	v := p.str(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, "must be an integer")
		return def
	}
	return n
}

func (p *queryParser) float(key string) (float64, bool) {
	v := p.str(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, "must be a number")
		return 0, false
	}
	return f, true
}

func (p *queryParser) boolPtr(key string) *bool {
	v := p.str(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, "must be true or false")
		return nil
	}
	return &b
}

func (p *queryParser) flag(key string) bool {
	b := p.boolPtr(key)
	return b != nil && *b
}

func (p *queryParser) time(key string) *time.Time {
	v := p.str(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		p.fail(key, "must be an RFC3339 timestamp")
		return nil
	}
	t = t.UTC()
	return &t
}

// parseCommaSeparated parses a comma-separated string into a slice
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (p *queryParser) filter() filter.EventFilter {
	return filter.EventFilter{
		Name:                 p.str("name"),
		Location:             p.str("location"),
		Category:             p.str("category"),
		StartDateFrom:        p.time("start_from"),
		StartDateTo:          p.time("start_to"),
		EndDateFrom:          p.time("end_from"),
		EndDateTo:            p.time("end_to"),
		Tags:                 parseCommaSeparated(p.q.Get("tags")),
		IsPublic:             p.boolPtr("is_public"),
		CreatorID:            p.str("creator_id"),
		Status:               models.EventStatus(strings.ToUpper(p.str("status"))),
		HasAvailableCapacity: p.flag("has_available_capacity"),
		Source:               p.str("source"),
		IncludeInternal:      p.boolPtr("include_internal"),
		IncludeExternal:      p.boolPtr("include_external"),
		IgnoreDates:          p.flag("ignore_dates"),
	}
}

func (p *queryParser) order() filter.Order {
	return filter.Order{
		Field:     filter.SortField(strings.ToUpper(p.str("sort"))),
		Direction: filter.Direction(strings.ToUpper(p.str("direction"))),
	}
}

// page reads skip and take. take defaults to the configured page size and
// is capped at the maximum.
func (p *queryParser) page(cfg pageLimits) pageRequest {
	pg := pageRequest{
		Skip: p.intOr("skip", 0),
		Take: p.intOr("take", cfg.defaultSize),
	}
	if pg.Take > cfg.maxSize {
		pg.Take = cfg.maxSize
	}
	return pg
}

type pageLimits struct {
	defaultSize int
	maxSize     int
}

func (h *Handler) pageLimits() pageLimits {
	return pageLimits{defaultSize: h.api.DefaultPageSize, maxSize: h.api.MaxPageSize}
}

// validateAll runs struct validation on every value and returns the first
// failure.
func validateAll(values ...interface{}) error {
	for _, v := range values {
		if err := validation.ValidateStruct(v); err != nil {
			return err
		}
	}
	return nil
}

// parseListQuery reads the shared filter, ordering and page of a listing.
func (h *Handler) parseListQuery(r *http.Request, userID string) (aggregate.ListQuery, error) {
	p := newQueryParser(r)
	f := p.filter()
	o := p.order()
	pg := p.page(h.pageLimits())
	if p.err != nil {
		return aggregate.ListQuery{}, p.err
	}
	if err := validateAll(&f, &o, &pg); err != nil {
		return aggregate.ListQuery{}, err
	}
	return aggregate.ListQuery{
		Filter: f,
		Order:  o,
		Skip:   pg.Skip,
		Take:   pg.Take,
		UserID: userID,
	}, nil
}

// parseNearQuery reads a near-me search. lat and lon are required; the
// radius defaults to the engine's.
func (h *Handler) parseNearQuery(r *http.Request, userID string) (aggregate.NearQuery, error) {
	p := newQueryParser(r)
	lat, hasLat := p.float("lat")
	lon, hasLon := p.float("lon")
	radius, hasRadius := p.float("radius_km")
	f := p.filter()
	pg := p.page(h.pageLimits())
	if p.err != nil {
		return aggregate.NearQuery{}, p.err
	}
	if !hasLat || !hasLon {
		return aggregate.NearQuery{}, &models.ValidationError{Field: "lat,lon", Message: "are required"}
	}
	if !hasRadius {
		radius = h.events.DefaultRadiusKm()
	}
	if err := validateAll(&f, &pg); err != nil {
		return aggregate.NearQuery{}, err
	}
	return aggregate.NearQuery{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radius,
		Filter:    f,
		Skip:      pg.Skip,
		Take:      pg.Take,
		UserID:    userID,
	}, nil
}

var errEmptyBody = errors.New("request body is required")

// decodeBody decodes a bounded JSON body into v. An empty body is accepted
// when allowEmpty is set and leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// decodeJSON decodes and validates a request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	if err := decodeBody(w, r, v, allowEmpty); err != nil {
		return err
	}
	return validation.ValidateStruct(v)
}
