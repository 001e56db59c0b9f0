package api

import (
	"errors"
	"net/http"

	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/portal"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

func registerHandler(auth *portal.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !decodeBody(w, r, &req) {
			return
		}

		sess, err := auth.Register(r.Context(), portal.Registration{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			if errors.Is(err, identity.ErrEmailTaken) {
				writeError(w, http.StatusConflict, "email_taken", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeData(w, r, http.StatusCreated, sess)
	}
}

func loginHandler(auth *portal.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		sess, err := auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeData(w, r, http.StatusOK, sess)
	}
}

func specializationsHandler(c *portal.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, r, http.StatusOK, c.Specializations(r.Context()))
	}
}

func locationsHandler(c *portal.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeData(w, r, http.StatusOK, c.Locations(r.Context(), q.Get("specialization"), q.Get("q")))
	}
}

func doctorsHandler(c *portal.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locationID, ok := queryUUID(w, r, "location_id")
		if !ok {
			return
		}
		writeData(w, r, http.StatusOK, c.Doctors(r.Context(), locationID, r.URL.Query().Get("specialization")))
	}
}

func openSlotsHandler(c *portal.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		day, ok := queryDate(w, r, "date")
		if !ok {
			return
		}
		locationID, ok := queryUUID(w, r, "location_id")
		if !ok {
			return
		}
		writeData(w, r, http.StatusOK, c.OpenSlots(r.Context(), doctorID, day, locationID))
	}
}

func addLocationHandler(c *portal.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LocationRequest
		if !decodeBody(w, r, &req) {
			return
		}

		loc := c.AddLocation(r.Context(), store.NewLocation{Name: req.Name, Address: req.Address, City: req.City})
		if loc == nil {
			serverError(w, r, "location_not_saved", "could not add location")
			return
		}
		writeData(w, r, http.StatusCreated, loc)
	}
}

func consultationHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		writeData(w, r, http.StatusOK, p.Consultation(r.Context(), id, participants(r)))
	}
}

func hasReportHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		writeData(w, r, http.StatusOK, map[string]bool{"has_report": p.HasReport(r.Context(), id)})
	}
}
