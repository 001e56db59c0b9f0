package api

import (
	"net/http"
	"time"

	"github.com/hackgods/clinic-appointment-portal/internal/portal"
)

// writeResult renders an admin action; failures carry the reason with 422.
func writeResult(w http.ResponseWriter, r *http.Request, res portal.Result, status int, data any) {
	if !res.Success {
		writeData(w, r, http.StatusUnprocessableEntity, ActionResponse{Success: false, Error: res.Error})
		return
	}
	writeData(w, r, status, ActionResponse{Success: true, Data: data})
}

func listDoctorsHandler(a *portal.Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, res := a.ListDoctors(r.Context(), r.URL.Query().Get("search"))
		writeResult(w, r, res, http.StatusOK, items)
	}
}

func createDoctorHandler(a *portal.Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDoctorRequest
		if !decodeBody(w, r, &req) {
			return
		}

		start, _ := time.Parse(dateLayout, req.WorkStartDate)
		res := a.CreateDoctor(r.Context(), portal.NewDoctor{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			Password:       req.Password,
			Specialization: req.Specialization,
			WorkStartDate:  start,
		})
		writeResult(w, r, res, http.StatusCreated, nil)
	}
}

func getDoctorHandler(a *portal.Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		doc, res := a.GetDoctor(r.Context(), id)
		writeResult(w, r, res, http.StatusOK, doc)
	}
}

func updateDoctorHandler(a *portal.Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req UpdateDoctorRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res := a.UpdateDoctor(r.Context(), id, portal.DoctorUpdate{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Specialization: req.Specialization,
			WorkStartDate:  parseDate(req.WorkStartDate),
		})
		writeResult(w, r, res, http.StatusOK, nil)
	}
}

func deleteDoctorHandler(a *portal.Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		writeResult(w, r, a.DeleteDoctor(r.Context(), id), http.StatusOK, nil)
	}
}

func visitsHandler(a *portal.Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := queryRange(w, r)
		if !ok {
			return
		}
		visits, res := a.Visits(r.Context(), from, to)
		writeResult(w, r, res, http.StatusOK, visits)
	}
}

func reportsHandler(a *portal.Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := queryRange(w, r)
		if !ok {
			return
		}
		reports, res := a.Reports(r.Context(), from, to)
		writeResult(w, r, res, http.StatusOK, reports)
	}
}
