package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pathUUID parses a UUID route parameter, answering 400 when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, r, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter; empty yields uuid.Nil.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, r, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryDate(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		badRequest(w, r, "missing_"+name, name+" is required")
		return time.Time{}, false
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		badRequest(w, r, "invalid_"+name, name+" must be a date formatted as "+dateLayout)
		return time.Time{}, false
	}
	return day, true
}

// queryRange reads optional from/to bounds. Either RFC 3339 timestamps or plain
// dates are accepted; a plain "to" date covers the whole day.
func queryRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	parse := func(name string, endOfDay bool) (*time.Time, bool) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return nil, true
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t, true
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(w, r, "invalid_"+name, name+" must be an RFC 3339 timestamp or a date")
			return nil, false
		}
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, true
	}
	if from, ok = parse("from", false); !ok {
		return nil, nil, false
	}
	if to, ok = parse("to", true); !ok {
		return nil, nil, false
	}
	return from, to, true
}
