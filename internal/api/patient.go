package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/booking"
	"github.com/hackgods/clinic-appointment-portal/internal/chat"
	"github.com/hackgods/clinic-appointment-portal/internal/portal"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

const maxChatUpload = 20 << 20

type ChatService interface {
	Load(ctx context.Context, sessionID string) (*chat.Session, error)
	Send(ctx context.Context, sessionID, text string, files []chat.Attachment) (*chat.Session, error)
	Clear(ctx context.Context, sessionID string) error
}

func profileHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, r, http.StatusOK, p.Profile(r.Context(), callerID(r)))
	}
}

func updateProfileHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProfileRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if !p.UpdateDetails(r.Context(), callerID(r), req.Pesel, parseDate(req.DateOfBirth)) {
			serverError(w, r, "profile_not_updated", "could not update profile")
			return
		}
		writeData(w, r, http.StatusOK, ActionResponse{Success: true})
	}
}

func patientAppointmentsHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upcoming bool
		switch r.URL.Query().Get("filter") {
		case "", "all":
		case "upcoming":
			upcoming = true
		default:
			badRequest(w, r, "invalid_filter", "filter must be one of: all upcoming")
			return
		}
		writeData(w, r, http.StatusOK, p.Appointments(r.Context(), callerID(r), upcoming))
	}
}

func bookAppointmentHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := p.Book(r.Context(), booking.Request{
			PatientID:        callerID(r),
			DoctorID:         uuid.MustParse(req.DoctorID),
			SlotID:           uuid.MustParse(req.SlotID),
			Pesel:            req.Pesel,
			BirthDate:        parseDate(req.BirthDate),
			VisitType:        req.VisitType,
			ReportedSymptoms: req.ReportedSymptoms,
			Report:           req.Report,
		})
		if err != nil {
			handleBookingError(w, r, err)
			return
		}

		resp := BookAppointmentResponse{AppointmentID: res.AppointmentID.String()}
		if res.ReportID != nil {
			id := res.ReportID.String()
			resp.ReportID = &id
		}
		writeData(w, r, http.StatusCreated, resp)
	}
}

func handleBookingError(w http.ResponseWriter, r *http.Request, err error) {
	var se *booking.StepError
	if !errors.As(err, &se) {
		serverError(w, r, "internal_error", err.Error())
		return
	}
	switch {
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", se.Err.Error())
	case se.Step == booking.StepValidate:
		badRequest(w, r, "invalid_booking", se.Err.Error())
	default:
		serverError(w, r, "booking_failed", se.Message())
	}
}

func reportHistoryHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, r, http.StatusOK, p.ReportHistory(r.Context(), callerID(r)))
	}
}

func createReportHandler(p *portal.Patients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req store.ReportPayload
		if !decodeBody(w, r, &req) {
			return
		}

		id := p.CreateReport(r.Context(), callerID(r), req)
		if id == nil {
			serverError(w, r, "report_not_saved", "could not save the report")
			return
		}
		writeData(w, r, http.StatusCreated, CreateReportResponse{ReportID: id.String()})
	}
}

func loadChatHandler(svc ChatService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Load(r.Context(), callerID(r).String())
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to load chat session", "error", err)
			serverError(w, r, "chat_unavailable", "could not load the conversation")
			return
		}
		writeData(w, r, http.StatusOK, sess)
	}
}

func sendChatHandler(svc ChatService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatUpload)
		if err := r.ParseMultipartForm(maxChatUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			badRequest(w, r, "invalid_request_body", "could not parse form")
			return
		}

		var files []chat.Attachment
		if r.MultipartForm != nil {
			for _, fh := range r.MultipartForm.File["images"] {
				att, err := readAttachment(fh)
				if err != nil {
					badRequest(w, r, "invalid_attachment", "could not read "+fh.Filename)
					return
				}
				files = append(files, att)
			}
		}

		sess, err := svc.Send(r.Context(), callerID(r).String(), r.FormValue("message"), files)
		switch {
		case errors.Is(err, chat.ErrBusy):
			writeError(w, http.StatusConflict, "chat_busy", err.Error())
		case errors.Is(err, chat.ErrInterviewComplete):
			writeError(w, http.StatusConflict, "interview_complete", err.Error())
		case err != nil:
			logger.ErrorContext(r.Context(), "failed to process chat message", "error", err)
			serverError(w, r, "chat_unavailable", "could not process the message")
		default:
			writeData(w, r, http.StatusOK, sess)
		}
	}
}

func clearChatHandler(svc ChatService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.Clear(r.Context(), callerID(r).String())
		if errors.Is(err, chat.ErrBusy) {
			writeError(w, http.StatusConflict, "chat_busy", err.Error())
			return
		}
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to clear chat session", "error", err)
			serverError(w, r, "chat_unavailable", "could not reset the conversation")
			return
		}
		writeData(w, r, http.StatusOK, ActionResponse{Success: true})
	}
}

func readAttachment(fh *multipart.FileHeader) (chat.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return chat.Attachment{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return chat.Attachment{}, err
	}
	return chat.Attachment{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
