// Package httpapi exposes the repair shop over HTTP: resource endpoints for
// the dashboard plus the sync trigger and the status-transition endpoint that
// goes through bay admission.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tsiory-dev/garagesync/internal/logging"
	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/services"
)

// Syncer triggers one synchronization run.
type Syncer interface {
	Sync(ctx context.Context) (*services.SyncSummary, error)
}

type Handler struct {
	syncer        Syncer
	repairs       *services.RepairService
	payments      *services.PaymentService
	cars          *services.CarService
	interventions *services.InterventionService
	stats         *services.StatsService
	logger        logging.Logger
	validate      *validator.Validate
}

func NewHandler(syncer Syncer, repairs *services.RepairService, payments *services.PaymentService,
	cars *services.CarService, interventions *services.InterventionService,
	stats *services.StatsService, logger logging.Logger) *Handler {
	return &Handler{
		syncer:        syncer,
		repairs:       repairs,
		payments:      payments,
		cars:          cars,
		interventions: interventions,
		stats:         stats,
		logger:        logger.With("module", "httpapi"),
		validate:      validator.New(),
	}
}

// Router builds the chi router with all routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.Healthz)
	r.Post("/sync", h.TriggerSync)

	r.Route("/repairs", func(r chi.Router) {
		r.Get("/", h.ListRepairs)
		r.Post("/", h.CreateRepair)
		r.Get("/{id}", h.GetRepair)
		r.Patch("/{id}/status", h.UpdateRepairStatus)
	})

	r.Route("/interventions", func(r chi.Router) {
		r.Get("/", h.ListInterventions)
		r.Post("/", h.CreateIntervention)
		r.Put("/{id}", h.UpdateIntervention)
		r.Delete("/{id}", h.DeleteIntervention)
	})

	r.Route("/cars", func(r chi.Router) {
		r.Get("/", h.ListCars)
		r.Post("/", h.CreateCar)
		r.Get("/{id}", h.GetCar)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.ListPayments)
		r.Post("/", h.CreatePayment)
	})

	r.Get("/stats", h.GetStats)

	return r
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	summary, err := h.syncer.Sync(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "sync failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- repairs ---

type createRepairRequest struct {
	CarID         string   `json:"car_id" validate:"required,uuid4"`
	Interventions []string `json:"interventions" validate:"required,min=1,dive,uuid4"`
}

type updateStatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=pending in_progress completed waiting_for_payment paid"`
	SlotNumber *int   `json:"slot_number" validate:"omitempty,min=1,max=2"`
}

func (h *Handler) ListRepairs(w http.ResponseWriter, r *http.Request) {
	result, err := h.repairs.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetRepair(w http.ResponseWriter, r *http.Request) {
	view, err := h.repairs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) CreateRepair(w http.ResponseWriter, r *http.Request) {
	var req createRepairRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.repairs.Create(r.Context(), req.CarID, req.Interventions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) UpdateRepairStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	repair, err := h.repairs.UpdateStatus(r.Context(), chi.URLParam(r, "id"),
		models.RepairStatus(req.Status), req.SlotNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repair)
}

// --- interventions ---

type interventionRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Price    float64 `json:"price" validate:"required,gte=0"`
	Duration int     `json:"duration" validate:"required,min=1"`
}

func (h *Handler) ListInterventions(w http.ResponseWriter, r *http.Request) {
	result, err := h.interventions.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CreateIntervention(w http.ResponseWriter, r *http.Request) {
	var req interventionRequest
	if !h.decode(w, r, &req) {
		return
	}

	iv, err := h.interventions.Create(r.Context(), &models.Intervention{
		Name:     req.Name,
		Price:    req.Price,
		Duration: req.Duration,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, iv)
}

func (h *Handler) UpdateIntervention(w http.ResponseWriter, r *http.Request) {
	var req interventionRequest
	if !h.decode(w, r, &req) {
		return
	}

	iv := &models.Intervention{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		Price:    req.Price,
		Duration: req.Duration,
	}
	if err := h.interventions.Update(r.Context(), iv); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

func (h *Handler) DeleteIntervention(w http.ResponseWriter, r *http.Request) {
	if err := h.interventions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- cars ---

type createCarRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid4"`
	LicensePlate string `json:"license_plate" validate:"required"`
	Model        string `json:"model" validate:"required"`
	Description  string `json:"description"`
}

func (h *Handler) ListCars(w http.ResponseWriter, r *http.Request) {
	result, err := h.cars.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetCar(w http.ResponseWriter, r *http.Request) {
	car, err := h.cars.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *Handler) CreateCar(w http.ResponseWriter, r *http.Request) {
	var req createCarRequest
	if !h.decode(w, r, &req) {
		return
	}

	car, err := h.cars.Create(r.Context(), &models.Car{
		UserID:       req.UserID,
		LicensePlate: req.LicensePlate,
		Model:        req.Model,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, car)
}

// --- payments ---

type createPaymentRequest struct {
	RepairID      string  `json:"repair_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gte=0"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	TransactionID string  `json:"transaction_id" validate:"required"`
	PhoneNumber   string  `json:"phone_number"`
	Provider      string  `json:"provider"`
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	result, err := h.payments.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.payments.Create(r.Context(), &services.PaymentInput{
		RepairRef:     req.RepairID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		PhoneNumber:   req.PhoneNumber,
		Provider:      req.Provider,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// --- stats ---

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// decode unmarshals and validates the request body, answering 400 itself when
// either step fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Warn(r.Context(), "failed to decode json", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request payload"})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.logger.Warn(r.Context(), "validation failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return false
	}
	return true
}
