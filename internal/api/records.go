package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/dennisdiepolder/monti/calldesk/internal/metrics"
	"github.com/dennisdiepolder/monti/calldesk/internal/storage"
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies on the records API
const maxBodyBytes = 64 << 10

// Broadcaster receives a notification after every successful mutation
type Broadcaster interface {
	BroadcastChange(msg types.ChangeMessage)
}

// RecordsHandler serves the /api/calls collection
type RecordsHandler struct {
	store    storage.Store
	hub      Broadcaster
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewRecordsHandler creates a new RecordsHandler. hub may be nil.
func NewRecordsHandler(store storage.Store, hub Broadcaster, m *metrics.Metrics, logger zerolog.Logger) *RecordsHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RecordsHandler{
		store:    store,
		hub:      hub,
		validate: v,
		metrics:  m,
		logger:   logger.With().Str("component", "records_api").Logger(),
	}
}

// Routes mounts the collection on r
func (h *RecordsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /api/calls
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	h.metrics.RecordOp("list", err)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list records")
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	statuses := make([]string, len(records))
	for i, rec := range records {
		statuses[i] = string(rec.Status)
	}
	h.metrics.UpdateRecordStats(statuses)

	writeJSON(w, http.StatusOK, records)
}

// Get handles GET /api/calls/{id}
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := types.RecordID(chi.URLParam(r, "id"))
	rec, err := h.store.Get(r.Context(), id)
	h.metrics.RecordOp("get", err)
	if err != nil {
		h.storeError(w, err, "get", id)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create handles POST /api/calls
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields types.RecordFields
	if !h.decode(w, r, &fields) {
		return
	}
	fields = fields.TrimSpace()
	if fields.Status == "" {
		fields.Status = types.InitialStatus
	}
	if err := h.validate.Struct(fields); err != nil {
		writeValidationError(w, err)
		return
	}

	rec, err := h.store.Create(r.Context(), fields)
	h.metrics.RecordOp("create", err)
	if err != nil {
		h.storeError(w, err, "create", "")
		return
	}

	h.logger.Info().Str("id", string(rec.ID)).Msg("record created")
	h.notify(types.ChangeCreated, rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// Update handles PUT /api/calls/{id}. Absent fields are left unchanged, so a
// body carrying only status is a status change.
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := types.RecordID(chi.URLParam(r, "id"))

	var patch storage.Patch
	if !h.decode(w, r, &patch) {
		return
	}
	patch = patch.TrimSpace()
	if err := h.validate.Struct(patch); err != nil {
		writeValidationError(w, err)
		return
	}

	op := types.ChangeReplaced
	if patch.Status != nil && (patch == storage.Patch{Status: patch.Status}) {
		op = types.ChangeStatus
	}

	rec, err := h.store.Update(r.Context(), id, patch)
	h.metrics.RecordOp(string(op), err)
	if err != nil {
		h.storeError(w, err, string(op), id)
		return
	}

	h.logger.Info().Str("id", string(id)).Str("op", string(op)).Msg("record updated")
	h.notify(op, id)
	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/calls/{id}
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := types.RecordID(chi.URLParam(r, "id"))
	err := h.store.Delete(r.Context(), id)
	h.metrics.RecordOp("delete", err)
	if err != nil {
		h.storeError(w, err, "delete", id)
		return
	}

	h.logger.Info().Str("id", string(id)).Msg("record deleted")
	h.notify(types.ChangeDeleted, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "record deleted", "id": string(id)})
}

func (h *RecordsHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func (h *RecordsHandler) notify(op types.ChangeOp, id types.RecordID) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastChange(types.NewChangeMessage(op, id))
}

func (h *RecordsHandler) storeError(w http.ResponseWriter, err error, op string, id types.RecordID) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	h.logger.Error().Err(err).Str("op", op).Str("id", string(id)).Msg("store operation failed")
	writeError(w, http.StatusInternalServerError, "failed to "+op+" record")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}
