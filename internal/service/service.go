// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never *sqlite.DB, so the tests in this
// package run against small in-memory fakes. Every method receives the
// authenticated caller as a model.Principal value; nothing here looks at HTTP
// headers or re-derives identity.
//
// Services return *apperror.AppError for anything the caller can act on
// (bad input, missing rows, state conflicts). Everything else is wrapped with
// fmt.Errorf and ends up as a 500.
package service

import (
	"strings"
	"time"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
)

// Calendar answers "what day is it" for the services that bucket data by
// date. Now is injectable so tests can pin the clock.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

// NewCalendar returns a Calendar on the wall clock in loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Now: time.Now, Location: loc}
}

// Today returns midnight of the current day in the calendar's location.
func (c Calendar) Today() time.Time {
	now := c.Now().In(c.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location)
}

// ParseDate parses a YYYY-MM-DD value from field in the calendar's location.
func (c Calendar) ParseDate(field, value string) (time.Time, error) {
	t, err := model.ParseDate(strings.TrimSpace(value), c.Location)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(field, err.Error())
	}
	return t, nil
}

// requireID trims id and rejects an empty value.
func requireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return id, nil
}
