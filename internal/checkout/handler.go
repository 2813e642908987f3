package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/fuegoaustral/storefront/internal/cart"
	"github.com/fuegoaustral/storefront/internal/clock"
	"github.com/fuegoaustral/storefront/internal/currency"
)

const MaxBodyBytes = 1 << 20

// Handler serves the checkout and reservation endpoints. Flow controllers
// and payment simulators are kept per cart session so concurrent visitors
// never share state.
type Handler struct {
	sessions  *cart.Sessions
	clk       clock.Clock
	publisher events.Publisher
	outcome   OutcomeSource
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP

	payCfg PaymentConfig

	mu    sync.Mutex
	flows map[string]*Flow
	sims  map[string]*Simulator
}

func NewHandler(sessions *cart.Sessions, publisher events.Publisher, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	h := &Handler{
		sessions:  sessions,
		clk:       clock.System(),
		publisher: publisher,
		outcome:   DefaultOutcome,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		flows:     make(map[string]*Flow),
		sims:      make(map[string]*Simulator),
	}
	h.payCfg = PaymentConfig{
		ProcessDelay: h.duration("payment.process_delay", DefaultProcessDelay),
		NotifyDelay:  h.duration("payment.notify_delay", DefaultNotifyDelay),
	}
	if sessions != nil {
		sessions.OnEvict(h.purgeSession)
	}
	return h
}

// purgeSession releases the flows and simulator of a swept cart session so
// checkout state shares the session's lifetime.
func (h *Handler) purgeSession(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sims, token)
	for _, kind := range []Kind{KindDelivery, KindTakeaway, KindReservation} {
		delete(h.flows, token+"|"+string(kind))
	}
}

// WithClock swaps the handler clock. Used by tests to drive the simulated
// delays without waiting.
func (h *Handler) WithClock(clk clock.Clock) *Handler {
	h.clk = clk
	return h
}

// WithOutcome swaps the payment outcome source.
func (h *Handler) WithOutcome(outcome OutcomeSource) *Handler {
	h.outcome = outcome
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/checkout", func(r chi.Router) {
		r.Route("/delivery", func(r chi.Router) {
			r.Get("/", h.GetFlow(KindDelivery))
			r.Post("/", h.SubmitFlow(KindDelivery))

			r.Route("/payment", func(r chi.Router) {
				r.Post("/", h.SubmitPayment)
				r.Post("/retry", h.RetryPayment)
				r.Post("/cancel", h.CancelPayment)
			})
		})
		r.Route("/takeaway", func(r chi.Router) {
			r.Get("/", h.GetFlow(KindTakeaway))
			r.Post("/", h.SubmitFlow(KindTakeaway))
		})
	})
	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", h.GetFlow(KindReservation))
		r.Post("/", h.SubmitFlow(KindReservation))
	})
}

// CheckoutRequest carries the raw form values for a submission.
type CheckoutRequest struct {
	Form map[string]string `json:"form"`
}

// FlowView is the controller state handed to the presentation layer.
type FlowView struct {
	Kind         Kind              `json:"kind"`
	State        FlowState         `json:"state"`
	FieldErrors  map[string]string `json:"field_errors,omitempty"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
}

func viewOf(flow *Flow) FlowView {
	view := FlowView{
		Kind:         flow.Kind(),
		State:        flow.State(),
		Confirmation: flow.Confirmation(),
	}
	if errs := flow.FieldErrors(); len(errs) > 0 {
		view.FieldErrors = errs
	}
	return view
}

// GetFlow reports the session's flow state, including any pending
// confirmation still inside its hold window.
func (h *Handler) GetFlow(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w, r, finish := h.tlm.Start(w, r, "Handler.GetFlow")
		defer finish()

		token, store := h.session(w, r)
		flow := h.flowFor(token, kind, store)
		apt.RespondSuccess(w, viewOf(flow))
	}
}

// SubmitFlow validates the submitted form and runs the order through. Card
// deliveries answer 402 and settle through the payment endpoints.
func (h *Handler) SubmitFlow(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w, r, finish := h.tlm.Start(w, r, "Handler.SubmitFlow")
		defer finish()

		log := h.log(r)
		ctx := r.Context()

		req, ok := h.decodeCheckoutPayload(w, r, log)
		if !ok {
			return
		}

		token, store := h.session(w, r)
		flow := h.flowFor(token, kind, store)
		flow.SetForm(Form(req.Form))

		conf, err := flow.Submit(ctx)
		switch {
		case errors.Is(err, ErrInvalidForm):
			log.Debug("checkout form rejected", "kind", string(kind), "fields", len(flow.FieldErrors()))
			apt.Respond(w, http.StatusUnprocessableEntity, viewOf(flow), nil)
			return
		case errors.Is(err, ErrEmptyCart):
			log.Debug("checkout rejected for empty cart", "kind", string(kind))
			apt.RespondError(w, http.StatusConflict, "Cart is empty")
			return
		case errors.Is(err, ErrPaymentRequired):
			apt.Respond(w, http.StatusPaymentRequired, viewOf(flow), nil)
			return
		case err != nil:
			log.Debug("checkout submit rejected", "error", err, "kind", string(kind))
			apt.RespondError(w, http.StatusConflict, "Order already in progress")
			return
		}

		log.Info("order confirmed", "kind", string(kind), "order_id", conf.OrderID)
		w.WriteHeader(http.StatusCreated)
		apt.RespondSuccess(w, viewOf(flow))
	}
}

// PaymentView is the simulator state handed to the presentation layer.
type PaymentView struct {
	State           PaymentState      `json:"state"`
	Amount          int               `json:"amount,omitempty"`
	AmountFormatted string            `json:"amount_formatted,omitempty"`
	FieldErrors     map[string]string `json:"field_errors,omitempty"`
}

func paymentViewOf(sim *Simulator) PaymentView {
	view := PaymentView{
		State:  sim.State(),
		Amount: sim.Amount(),
	}
	if view.Amount > 0 {
		view.AmountFormatted = currency.FormatCLP(view.Amount)
	}
	return view
}

// SubmitPayment runs the card form through the payment simulator and waits
// for the attempt to resolve.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SubmitPayment")
	defer finish()

	log := h.log(r)

	in, ok := h.decodeCardPayload(w, r, log)
	if !ok {
		return
	}

	token, store := h.session(w, r)
	flow := h.flowFor(token, KindDelivery, store)
	if flow.State() != FlowStateSubmitting {
		apt.RespondError(w, http.StatusConflict, "No card payment pending")
		return
	}

	sim := h.simFor(token, flow)
	resolved, fieldErrs, err := sim.Submit(store.TotalPrice(), in)
	if err != nil {
		log.Debug("payment submit rejected", "error", err)
		apt.RespondError(w, http.StatusConflict, "Payment cannot be submitted")
		return
	}
	if len(fieldErrs) > 0 {
		view := paymentViewOf(sim)
		view.FieldErrors = fieldErrs
		apt.Respond(w, http.StatusUnprocessableEntity, view, nil)
		return
	}

	select {
	case state := <-resolved:
		log.Info("payment attempt resolved", "state", string(state))
	case <-r.Context().Done():
		return
	}

	apt.RespondSuccess(w, paymentViewOf(sim))
}

// RetryPayment returns a failed attempt to the card form.
func (h *Handler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RetryPayment")
	defer finish()

	log := h.log(r)

	token, _ := h.session(w, r)
	sim := h.simLookup(token)
	if sim == nil {
		apt.RespondError(w, http.StatusNotFound, "No payment in progress")
		return
	}
	if err := sim.Retry(); err != nil {
		log.Debug("payment retry rejected", "error", err)
		apt.RespondError(w, http.StatusConflict, "Payment cannot be retried")
		return
	}

	apt.RespondSuccess(w, paymentViewOf(sim))
}

// CancelPayment abandons the payment and returns the flow to the checkout
// form.
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelPayment")
	defer finish()

	log := h.log(r)

	token, store := h.session(w, r)
	flow := h.flowFor(token, KindDelivery, store)

	sim := h.simLookup(token)
	if sim == nil {
		// No card was submitted yet; backing out of the payment step is
		// still a valid cancel.
		if err := flow.AbandonPayment(); err != nil {
			log.Debug("payment cancel rejected", "error", err)
			apt.RespondError(w, http.StatusNotFound, "No payment in progress")
			return
		}
		apt.RespondSuccess(w, viewOf(flow))
		return
	}
	if err := sim.Cancel(); err != nil {
		log.Debug("payment cancel rejected", "error", err)
		apt.RespondError(w, http.StatusConflict, "Payment cannot be cancelled")
		return
	}
	h.dropSim(token)

	apt.RespondSuccess(w, viewOf(flow))
}

// flowFor returns the session's controller for a flow kind, creating it on
// first use.
func (h *Handler) flowFor(token string, kind Kind, store *cart.Store) *Flow {
	key := token + "|" + string(kind)

	h.mu.Lock()
	defer h.mu.Unlock()

	if flow, ok := h.flows[key]; ok {
		return flow
	}

	cfg := DefaultFlowConfig(kind)
	cfg.SubmitDelay = h.duration("checkout.submit_delay", cfg.SubmitDelay)
	cfg.ConfirmHold = h.duration("checkout.confirm_hold", cfg.ConfirmHold)

	flow := NewFlow(kind, token, FlowDeps{
		Cart:      store,
		Clock:     h.clk,
		Publisher: h.publisher,
		Logger:    h.logger,
	}, cfg)
	h.flows[key] = flow
	return flow
}

// simFor returns the session's payment simulator, creating it wired to the
// delivery flow on first use. Completion either confirms the flow or returns
// it to the checkout form; a finished simulator is dropped so a later order
// starts fresh.
func (h *Handler) simFor(token string, flow *Flow) *Simulator {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sim, ok := h.sims[token]; ok {
		return sim
	}

	sim := NewSimulator(h.clk, h.outcome, h.payCfg, func(success bool) {
		if success {
			if _, err := flow.ConfirmPaid(context.Background()); err != nil {
				h.logger.Error("error confirming paid order", "error", err)
			}
		} else {
			if err := flow.AbandonPayment(); err != nil {
				h.logger.Error("error abandoning payment", "error", err)
			}
		}
		h.dropSim(token)
	}, h.logger)
	h.sims[token] = sim
	return sim
}

func (h *Handler) simLookup(token string) *Simulator {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sims[token]
}

func (h *Handler) dropSim(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sims, token)
}

// session resolves the request's cart session, issuing a fresh one when the
// token is absent or expired. The token always travels back on the response.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *cart.Store) {
	token := r.Header.Get(cart.SessionHeader)
	if token != "" {
		if store, ok := h.sessions.Get(token); ok {
			w.Header().Set(cart.SessionHeader, token)
			return token, store
		}
	}
	token, store := h.sessions.Issue()
	w.Header().Set(cart.SessionHeader, token)
	return token, store
}

func (h *Handler) decodeCheckoutPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (CheckoutRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return CheckoutRequest{}, false
	}

	var req CheckoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return CheckoutRequest{}, false
	}
	if req.Form == nil {
		req.Form = map[string]string{}
	}

	return req, true
}

func (h *Handler) decodeCardPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (CardInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return CardInput{}, false
	}

	var in CardInput
	if err := json.Unmarshal(body, &in); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return CardInput{}, false
	}

	return in, true
}

func (h *Handler) duration(key string, def time.Duration) time.Duration {
	if h.config == nil {
		return def
	}
	raw := h.config.GetStringOrDef(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		h.logger.Error("invalid duration in config", "key", key, "value", raw)
		return def
	}
	return d
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
