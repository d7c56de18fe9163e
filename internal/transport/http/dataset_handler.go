package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "sheetchart/internal/errors"
	"sheetchart/internal/services"
	"sheetchart/pkg/contracts/domain"
)

// DatasetHandler exposes the upload / inspect / aggregate REST surface.
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	maxUpload    int64
}

// NewDatasetHandler creates a dataset handler.
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUpload int64) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
		maxUpload:    maxUpload,
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Upload)
	r.Route("/{datasetID}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/columns", h.GetColumns)
		r.Get("/mapping", h.GetMappingSuggestion)
		r.Post("/aggregate", h.Aggregate)
	})

	return r
}

// DatasetCtx validates the dataset ID parameter.
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "datasetID") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("datasetID", "Dataset ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets: a multipart upload of one spreadsheet
// or delimited file.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A file form field is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	summary, err := h.service.Ingest(r.Context(), file, header.Filename)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.IngestError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// GetColumns handles GET /api/datasets/{datasetID}/columns.
func (h *DatasetHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	columns, err := h.service.Columns(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"dataset_id": id,
		"columns":    columns,
	})
}

// MappingSuggestionResponse is the confirmation-step payload.
type MappingSuggestionResponse struct {
	DatasetID    string         `json:"dataset_id"`
	Mapping      domain.Mapping `json:"mapping"`
	NeedsMapping bool           `json:"needs_mapping"`
}

// GetMappingSuggestion handles GET /api/datasets/{datasetID}/mapping.
func (h *DatasetHandler) GetMappingSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	mapping, needsMapping, err := h.service.MappingSuggestion(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, MappingSuggestionResponse{
		DatasetID:    id,
		Mapping:      mapping,
		NeedsMapping: needsMapping,
	})
}

// AggregateRequest is the body of POST /api/datasets/{datasetID}/aggregate.
// The mapping is the caller-confirmed snapshot; the engine never persists
// or mutates it.
type AggregateRequest struct {
	Mapping     domain.Mapping            `json:"mapping" validate:"required"`
	Granularity domain.Granularity        `json:"granularity" validate:"required,oneof=day month quarter"`
	Metrics     []domain.MetricDescriptor `json:"metrics" validate:"required,min=1,dive"`
}

// Bind implements render.Binder.
func (req *AggregateRequest) Bind(r *http.Request) error {
	return nil
}

// Aggregate handles POST /api/datasets/{datasetID}/aggregate.
func (h *DatasetHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	req := &AggregateRequest{}
	if err := render.Bind(r, req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error()))
		return
	}

	result, err := h.service.Aggregate(r.Context(), id, req.Mapping, req.Granularity, req.Metrics)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrDatasetNotFound) {
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
