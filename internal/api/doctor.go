package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/notice"
	"github.com/hackgods/clinic-appointment-portal/internal/portal"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

func doctorStatsHandler(d *portal.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, r, http.StatusOK, d.Stats(r.Context(), callerID(r)))
	}
}

func completeAppointmentHandler(d *portal.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req CompleteAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		err := d.CompleteAppointment(r.Context(), portal.Completion{
			AppointmentID: id,
			DoctorID:      callerID(r),
			Diagnosis:     req.Diagnosis,
			AIRating:      req.AIRating,
		})
		switch {
		case errors.Is(err, store.ErrAppointmentNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:   "appointment_not_found",
				Details: "no such appointment on your schedule",
				Notices: notice.List(r.Context()),
			})
			return
		case err != nil:
			serverError(w, r, "appointment_not_completed", "could not complete the visit")
			return
		}
		writeData(w, r, http.StatusOK, ActionResponse{Success: true})
	}
}

func doctorSlotsHandler(d *portal.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := queryDate(w, r, "date")
		if !ok {
			return
		}
		writeData(w, r, http.StatusOK, d.SlotsForDate(r.Context(), callerID(r), day))
	}
}

func deleteSlotsHandler(d *portal.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := queryDate(w, r, "date")
		if !ok {
			return
		}
		n := d.DeleteSlots(r.Context(), callerID(r), day)
		writeData(w, r, http.StatusOK, map[string]int64{"deleted": n})
	}
}

func insertSlotsHandler(d *portal.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InsertSlotsRequest
		if !decodeBody(w, r, &req) {
			return
		}

		slots := make([]store.NewSlot, 0, len(req.Slots))
		for _, s := range req.Slots {
			slots = append(slots, store.NewSlot{
				LocationID: uuid.MustParse(s.LocationID),
				StartTime:  s.StartTime,
				EndTime:    s.EndTime,
			})
		}
		if !d.InsertSlots(r.Context(), callerID(r), slots) {
			serverError(w, r, "slots_not_saved", "could not save the schedule")
			return
		}
		writeData(w, r, http.StatusCreated, ActionResponse{Success: true})
	}
}

func lockSlotHandler(d *portal.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		if !d.LockSlot(r.Context(), callerID(r), slotID) {
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Error:   "slot_not_locked",
				Details: "slot already booked or not owned by doctor",
			})
			return
		}
		writeData(w, r, http.StatusOK, ActionResponse{Success: true})
	}
}

func occupiedDatesHandler(d *portal.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, ok := queryDate(w, r, "from")
		if !ok {
			return
		}
		to, ok := queryDate(w, r, "to")
		if !ok {
			return
		}
		if to.Before(from) {
			badRequest(w, r, "invalid_range", "to must not be before from")
			return
		}
		writeData(w, r, http.StatusOK, d.OccupiedDates(r.Context(), callerID(r), from, to))
	}
}
