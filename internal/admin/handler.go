package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/entityadmin/internal/entity"
	"github.com/odyssey-erp/entityadmin/internal/lookup"
	"github.com/odyssey-erp/entityadmin/internal/platform/httpx"
	"github.com/odyssey-erp/entityadmin/internal/shared"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
)

// LookupService serves the reference lists used by entity forms.
type LookupService interface {
	Currencies(ctx context.Context) ([]lookup.Option, error)
	Countries(ctx context.Context) ([]lookup.Option, error)
	States(ctx context.Context, countryID string) ([]lookup.Option, error)
}

// Handler exposes the controller and lookups as a JSON API.
type Handler struct {
	logger     *slog.Logger
	controller *Controller
	lookups    LookupService
	validator  *validator.Validate
}

// NewHandler constructs a Handler instance. lookups may be nil.
func NewHandler(logger *slog.Logger, controller *Controller, lookups LookupService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		controller: controller,
		lookups:    lookups,
		validator:  validator.New(),
	}
}

// MountRoutes registers the API routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/entities", func(r chi.Router) {
		r.Get("/", h.listEntities)
		r.Post("/", h.createEntity)
		r.Get("/hierarchy", h.hierarchy)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getEntity)
			r.Put("/", h.updateEntity)
			r.Delete("/", h.deleteEntity)
			r.Patch("/", h.patchEntity)
			r.Post("/toggle", h.toggleEntity)
		})
	})
	if h.lookups != nil {
		r.Route("/lookups", func(r chi.Router) {
			r.Get("/currencies", h.currencies)
			r.Get("/countries", h.countries)
			r.Get("/countries/{id}/states", h.states)
		})
	}
	r.Get("/state", h.snapshot)
}

type listQuery struct {
	Page           int    `validate:"gte=0"`
	PageSize       int    `validate:"gte=0,lte=500"`
	Search         string `validate:"max=200"`
	IncludeDeleted bool
}

type listResponse struct {
	Items      []entity.Entity   `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

type entityRequest struct {
	ID                 string   `json:"id" validate:"max=64"`
	LegalBusinessName  string   `json:"legalBusinessName" validate:"max=200"`
	DisplayName        string   `json:"displayName" validate:"max=200"`
	EntityType         string   `json:"entityType" validate:"max=100"`
	AddressLine1       string   `json:"addressLine1" validate:"max=500"`
	AddressLine2       string   `json:"addressLine2" validate:"max=500"`
	City               string   `json:"city" validate:"max=100"`
	PinCode            string   `json:"pinCode" validate:"max=20"`
	Country            string   `json:"country" validate:"max=64"`
	State              string   `json:"state" validate:"max=64"`
	DefaultCurrency    string   `json:"defaultCurrency" validate:"max=10"`
	OtherCurrencies    []string `json:"otherCurrencies" validate:"dive,required,max=10"`
	Modules            []string `json:"modules" validate:"dive,required,max=100"`
	IsEnabled          *bool    `json:"isEnabled"`
	IsDeleted          *bool    `json:"isDeleted"`
	IsConfigured       *bool    `json:"isConfigured"`
	ProgressPercentage string   `json:"progressPercentage" validate:"max=10"`
	CreatedAt          string   `json:"createdAt"`
	LastUpdatedAt      string   `json:"lastUpdatedAt"`
}

func (r entityRequest) form() entity.Form {
	return entity.Form{
		ID:                 strings.TrimSpace(r.ID),
		LegalBusinessName:  r.LegalBusinessName,
		DisplayName:        r.DisplayName,
		EntityType:         r.EntityType,
		AddressLine1:       r.AddressLine1,
		AddressLine2:       r.AddressLine2,
		City:               r.City,
		PinCode:            r.PinCode,
		Country:            r.Country,
		State:              r.State,
		Currencies:         entity.CurrencySelection{Default: r.DefaultCurrency, Others: r.OtherCurrencies},
		Modules:            r.Modules,
		IsEnabled:          r.IsEnabled,
		IsDeleted:          r.IsDeleted,
		IsConfigured:       r.IsConfigured,
		ProgressPercentage: r.ProgressPercentage,
		CreatedAt:          r.CreatedAt,
		LastUpdatedAt:      r.LastUpdatedAt,
	}
}

type patchRequest struct {
	IsEnabled          *bool     `json:"isEnabled"`
	IsConfigured       *bool     `json:"isConfigured"`
	Modules            *[]string `json:"modules" validate:"omitempty,dive,required,max=100"`
	ProgressPercentage *string   `json:"progressPercentage" validate:"omitempty,max=10"`
}

func (r patchRequest) empty() bool {
	return r.IsEnabled == nil && r.IsConfigured == nil && r.Modules == nil && r.ProgressPercentage == nil
}

type messageResponse struct {
	Message string `json:"message"`
	Route   string `json:"route,omitempty"`
}

type toggleResponse struct {
	ID        string `json:"id"`
	IsEnabled bool   `json:"isEnabled"`
}

type entityResponse struct {
	Entity    entity.Entity `json:"entity"`
	Hierarchy []sqlapi.Node `json:"hierarchy"`
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if err := h.validator.Struct(q); err != nil {
		h.invalid(w, err)
		return
	}
	filters := entity.ListFilters{
		Page:           q.Page,
		PageSize:       q.PageSize,
		Search:         strings.TrimSpace(q.Search),
		IncludeDeleted: q.IncludeDeleted,
	}.Normalize()
	items, total, err := h.controller.LoadEntities(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err, MsgFetchEntitiesFailed)
		return
	}
	if items == nil {
		items = []entity.Entity{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Items:      items,
		Pagination: shared.NewPagination(filters.Page, filters.PageSize, total),
	})
}

func (h *Handler) getEntity(w http.ResponseWriter, r *http.Request) {
	ent, nodes, err := h.controller.LoadEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err, MsgFetchEntityFailed)
		return
	}
	httpx.JSON(w, http.StatusOK, entityResponse{Entity: ent, Hierarchy: nodes})
}

func (h *Handler) hierarchy(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.controller.LoadHierarchy(r.Context())
	if err != nil {
		httpx.RespondError(w, err, MsgFetchHierarchyFailed)
		return
	}
	if nodes == nil {
		nodes = []sqlapi.Node{}
	}
	httpx.JSON(w, http.StatusOK, nodes)
}

func (h *Handler) createEntity(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEntity(w, r)
	if !ok {
		return
	}
	route, err := h.controller.SaveEntity(withActor(r), req.form())
	if err != nil {
		httpx.RespondError(w, err, MsgSaveFailed)
		return
	}
	httpx.JSON(w, http.StatusCreated, messageResponse{Message: MsgSaved, Route: route})
}

func (h *Handler) updateEntity(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEntity(w, r)
	if !ok {
		return
	}
	req.ID = chi.URLParam(r, "id")
	route, err := h.controller.UpdateEntity(withActor(r), req.form())
	if err != nil {
		httpx.RespondError(w, err, MsgUpdateFailed)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: MsgUpdated, Route: route})
}

func (h *Handler) deleteEntity(w http.ResponseWriter, r *http.Request) {
	route, err := h.controller.DeleteEntity(withActor(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err, MsgDeleteFailed)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: MsgDeleted, Route: route})
}

func (h *Handler) patchEntity(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.invalid(w, err)
		return
	}
	if req.empty() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no fields to update")
		return
	}
	patch := entity.PartialUpdate{
		ID:                 chi.URLParam(r, "id"),
		IsEnabled:          req.IsEnabled,
		IsConfigured:       req.IsConfigured,
		Modules:            req.Modules,
		ProgressPercentage: req.ProgressPercentage,
	}
	if err := h.controller.PatchEntity(withActor(r), patch); err != nil {
		httpx.RespondError(w, err, MsgStatusUpdateFailed)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: MsgStatusUpdated})
}

func (h *Handler) toggleEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	enabled, err := h.controller.ToggleEnabled(withActor(r), id)
	if err != nil {
		httpx.RespondError(w, err, MsgStatusUpdateFailed)
		return
	}
	httpx.JSON(w, http.StatusOK, toggleResponse{ID: id, IsEnabled: enabled})
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *Handler) currencies(w http.ResponseWriter, r *http.Request) {
	h.respondLookup(w, "currencies", func() ([]lookup.Option, error) {
		return h.lookups.Currencies(r.Context())
	})
}

func (h *Handler) countries(w http.ResponseWriter, r *http.Request) {
	h.respondLookup(w, "countries", func() ([]lookup.Option, error) {
		return h.lookups.Countries(r.Context())
	})
}

func (h *Handler) states(w http.ResponseWriter, r *http.Request) {
	h.respondLookup(w, "states", func() ([]lookup.Option, error) {
		return h.lookups.States(r.Context(), chi.URLParam(r, "id"))
	})
}

func (h *Handler) respondLookup(w http.ResponseWriter, kind string, load func() ([]lookup.Option, error)) {
	opts, err := load()
	if err != nil {
		h.logger.Error("load lookup", slog.String("kind", kind), slog.Any("error", err))
		httpx.RespondError(w, err, "Failed to fetch "+kind)
		return
	}
	if opts == nil {
		opts = []lookup.Option{}
	}
	httpx.JSON(w, http.StatusOK, opts)
}

func (h *Handler) decodeEntity(w http.ResponseWriter, r *http.Request) (entityRequest, bool) {
	var req entityRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err, "")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		h.invalid(w, err)
		return req, false
	}
	return req, true
}

func (h *Handler) invalid(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" failed "+fe.Tag())
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(fields, "; "))
		return
	}
	httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
}

func parseListQuery(r *http.Request) (listQuery, error) {
	values := r.URL.Query()
	q := listQuery{Search: values.Get("search")}
	var err error
	if q.Page, err = intParam(values.Get("page")); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(values.Get("pageSize")); err != nil {
		return q, err
	}
	if raw := strings.TrimSpace(values.Get("includeDeleted")); raw != "" {
		if q.IncludeDeleted, err = strconv.ParseBool(raw); err != nil {
			return q, errors.Join(httpx.ErrBadRequest, err)
		}
	}
	return q, nil
}

func intParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Join(httpx.ErrBadRequest, err)
	}
	return v, nil
}

// withActor attributes writes to the X-Actor header, if any.
func withActor(r *http.Request) context.Context {
	if actor := strings.TrimSpace(r.Header.Get("X-Actor")); actor != "" {
		return shared.ContextWithActor(r.Context(), actor)
	}
	return r.Context()
}
