package handler

import (
	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
)

// ParticipateRequest is the HTTP request body for POST /events/{id}/participate.
type ParticipateRequest struct {
	SelectedNiche string `json:"selectedNiche"`

	parsedNiche domain.Niche
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ParticipateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	niche, err := domain.ParseNiche(r.SelectedNiche)
	if err != nil {
		return err
	}
	r.parsedNiche = niche
	return nil
}

// ParsedNiche returns the validated niche.
func (r *ParticipateRequest) ParsedNiche() domain.Niche {
	return r.parsedNiche
}

// AttendRequest is the HTTP request body for POST /events/{id}/attend/{participantId}.
// The body is optional; absent or non-positive points fall back to the
// service default.
type AttendRequest struct {
	Points int `json:"points"`
}
