package menu

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

// Handler serves the storefront's read-only menu endpoints.
type Handler struct {
	repo   Repo
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
}

func NewHandler(repo Repo, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListMenuItems)
			r.Get("/{id}", h.GetMenuItem)
		})
	})
}

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var items []*MenuItem
	var err error

	if category := r.URL.Query().Get("category"); category != "" {
		cat := Category(category)
		if !cat.Valid() {
			log.Debug("invalid category parameter", "category", category)
			apt.RespondError(w, http.StatusBadRequest, "Invalid category parameter")
			return
		}
		items, err = h.repo.ListByCategory(ctx, cat)
	} else {
		items, err = h.repo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving menu items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve menu items")
		return
	}

	SortForDisplay(items)
	apt.RespondCollection(w, items, "menu/items")
}

func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	item, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Debug("menu item not found", "error", err, "id", id)
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	apt.RespondSuccess(w, item)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
