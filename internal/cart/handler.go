package cart

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/fuegoaustral/storefront/internal/currency"
	"github.com/fuegoaustral/storefront/internal/menu"
)

const MaxBodyBytes = 1 << 20

// SessionHeader carries the cart session token. The first response issues
// one; clients echo it back on every call.
const SessionHeader = "X-Cart-Session"

// Handler serves the session cart endpoints.
type Handler struct {
	sessions *Sessions
	menuRepo menu.Repo
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
}

func NewHandler(sessions *Sessions, menuRepo menu.Repo, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		sessions: sessions,
		menuRepo: menuRepo,
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.AddItem)
			r.Patch("/{id}", h.UpdateQuantity)
			r.Delete("/{id}", h.RemoveItem)
		})
	})
}

// CartView is the snapshot handed to the presentation layer.
type CartView struct {
	Items               []Line `json:"items"`
	TotalItems          int    `json:"total_items"`
	TotalPrice          int    `json:"total_price"`
	TotalPriceFormatted string `json:"total_price_formatted"`
}

func viewOf(store *Store) CartView {
	total := store.TotalPrice()
	return CartView{
		Items:               store.Lines(),
		TotalItems:          store.TotalItems(),
		TotalPrice:          total,
		TotalPriceFormatted: currency.FormatCLP(total),
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCart")
	defer finish()

	store := h.session(w, r)
	apt.RespondSuccess(w, viewOf(store))
}

type AddItemRequest struct {
	ItemID string `json:"item_id"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeAddItemPayload(w, r, log)
	if !ok {
		return
	}
	if req.ItemID == "" {
		log.Debug("missing item id in add item request")
		apt.RespondError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	item, err := h.menuRepo.Get(ctx, req.ItemID)
	if err != nil {
		log.Debug("menu item not found for cart add", "error", err, "item_id", req.ItemID)
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	store := h.session(w, r)
	store.Add(item)

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, viewOf(store))
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateQuantity")
	defer finish()

	log := h.log(r)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	req, ok := h.decodeUpdateQuantityPayload(w, r, log)
	if !ok {
		return
	}

	store := h.session(w, r)
	store.UpdateQuantity(id, req.Quantity)

	apt.RespondSuccess(w, viewOf(store))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveItem")
	defer finish()

	log := h.log(r)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	store := h.session(w, r)
	store.Remove(id)

	apt.RespondSuccess(w, viewOf(store))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearCart")
	defer finish()

	store := h.session(w, r)
	store.Clear()

	apt.RespondSuccess(w, viewOf(store))
}

// session resolves the request's cart store, issuing a fresh session when the
// token is absent or expired. The token always travels back on the response.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *Store {
	token := r.Header.Get(SessionHeader)
	if token != "" {
		if store, ok := h.sessions.Get(token); ok {
			w.Header().Set(SessionHeader, token)
			return store
		}
	}
	token, store := h.sessions.Issue()
	w.Header().Set(SessionHeader, token)
	return store
}

func (h *Handler) decodeAddItemPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (AddItemRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return AddItemRequest{}, false
	}

	var req AddItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return AddItemRequest{}, false
	}

	return req, true
}

func (h *Handler) decodeUpdateQuantityPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (UpdateQuantityRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return UpdateQuantityRequest{}, false
	}

	var req UpdateQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return UpdateQuantityRequest{}, false
	}

	return req, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
