package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/transport/http/dto"
	"github.com/baechuer/blood-drive-service/internal/transport/http/middleware"
	"github.com/baechuer/blood-drive-service/internal/transport/http/response"
	"github.com/baechuer/blood-drive-service/internal/transport/http/validate"
)

type EventsHandler struct {
	svc *event.Service
	loc *time.Location
}

// NewEventsHandler parses wire dates in loc.
func NewEventsHandler(svc *event.Service, loc *time.Location) *EventsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &EventsHandler{svc: svc, loc: loc}
}

func eventIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return "", false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return page, pageSize
}

// Public

func (h *EventsHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	filter := event.ListFilter{
		BloodType: r.URL.Query().Get("blood_type"),
		Status:    r.URL.Query().Get("status"),
		Page:      page,
		PageSize:  pageSize,
	}

	p, err := h.svc.ListPublic(r.Context(), filter)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToPageResp(p))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev))
}

// Organizer

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	cmd, err := req.Command(middleware.Actor(r), h.loc)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	ev, err := h.svc.Create(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToEventResp(ev))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var req dto.UpdateEventReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	cmd, err := req.Command(middleware.Actor(r), id, h.loc)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	ev, err := h.svc.Update(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev))
}

func (h *EventsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Cancel(r.Context(), id, middleware.Actor(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, middleware.Actor(r)); err != nil {
		response.Err(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *EventsHandler) Roster(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Roster(r.Context(), id, middleware.Actor(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToRoster(list))
}

func (h *EventsHandler) MarkAttended(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	donorID := strings.TrimSpace(chi.URLParam(r, "donor_id"))
	if donorID == "" {
		response.Err(w, r, domain.ErrValidationField("donor_id", "donor_id is required"))
		return
	}
	res, err := h.svc.MarkAttended(r.Context(), id, donorID, middleware.Actor(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToRegistrationResp(res))
}

func (h *EventsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	p, err := h.svc.ListMine(r.Context(), middleware.Actor(r), page, pageSize)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToPageResp(p))
}

// Donor

func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Register(r.Context(), id, middleware.Actor(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToRegistrationResp(res))
}

func (h *EventsHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CancelRegistration(r.Context(), id, middleware.Actor(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToRegistrationResp(res))
}
