package handler

import (
	"time"

	"campuspulse/internal/catalog"
	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
)

// Event dates arrive either as a bare day or a full timestamp.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseEventDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, "date must be RFC 3339 or YYYY-MM-DD")
}

// CreateEventRequest is the HTTP request body for POST /events.
type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Niche       string `json:"niche"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Capacity    int    `json:"capacity"`

	parsed catalog.CreateParams
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Venue == "" {
		return dErrors.New(dErrors.CodeValidation, "venue is required")
	}
	if r.Capacity < 1 {
		return dErrors.New(dErrors.CodeValidation, "capacity must be a positive integer")
	}
	niche, err := domain.ParseNiche(r.Niche)
	if err != nil {
		return err
	}
	if r.Date == "" {
		return dErrors.New(dErrors.CodeValidation, "date is required")
	}
	date, err := parseEventDate(r.Date)
	if err != nil {
		return err
	}

	r.parsed = catalog.CreateParams{
		Name:        r.Name,
		Description: r.Description,
		Niche:       niche,
		Venue:       r.Venue,
		Date:        date,
		Time:        r.Time,
		Capacity:    r.Capacity,
	}
	return nil
}

// Params returns the validated creation parameters.
func (r *CreateEventRequest) Params() catalog.CreateParams {
	return r.parsed
}

// UpdateEventRequest is the HTTP request body for PUT /events/{id}.
// Absent fields leave the stored value unchanged.
type UpdateEventRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Niche       *string `json:"niche"`
	Venue       *string `json:"venue"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Capacity    *int    `json:"capacity"`
	IsActive    *bool   `json:"isActive"`

	parsed catalog.UpdateParams
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpdateEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	params := catalog.UpdateParams{
		Name:        r.Name,
		Description: r.Description,
		Venue:       r.Venue,
		Time:        r.Time,
		Capacity:    r.Capacity,
		IsActive:    r.IsActive,
	}
	if r.Name != nil && *r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
	}
	if r.Venue != nil && *r.Venue == "" {
		return dErrors.New(dErrors.CodeValidation, "venue cannot be empty")
	}
	if r.Capacity != nil && *r.Capacity < 1 {
		return dErrors.New(dErrors.CodeValidation, "capacity must be a positive integer")
	}
	if r.Niche != nil {
		niche, err := domain.ParseNiche(*r.Niche)
		if err != nil {
			return err
		}
		params.Niche = &niche
	}
	if r.Date != nil {
		date, err := parseEventDate(*r.Date)
		if err != nil {
			return err
		}
		params.Date = &date
	}

	r.parsed = params
	return nil
}

// Params returns the validated update parameters.
func (r *UpdateEventRequest) Params() catalog.UpdateParams {
	return r.parsed
}
