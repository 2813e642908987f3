package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/fuegoaustral/storefront/internal/cart"
	"github.com/fuegoaustral/storefront/internal/clock"
	"github.com/fuegoaustral/storefront/internal/currency"
	"github.com/fuegoaustral/storefront/pkg/event"
)

// FlowState is the checkout controller's position in its lifecycle.
type FlowState string

const (
	FlowStateIdle       FlowState = "idle"
	FlowStateSubmitting FlowState = "submitting"
	FlowStateConfirmed  FlowState = "confirmed"
)

var (
	// ErrInvalidForm reports validation failures; the field errors carry the
	// detail.
	ErrInvalidForm = errors.New("checkout form is invalid")
	// ErrEmptyCart rejects order submission without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentRequired signals a card delivery order that must settle
	// through the payment simulator before it confirms.
	ErrPaymentRequired = errors.New("card payment required")
)

const (
	// DefaultSubmitDelay stands in for the order round trip.
	DefaultSubmitDelay = 2 * time.Second

	// Confirmation hold per flow before the cart clears and the form resets.
	DefaultDeliveryConfirmHold    = 3 * time.Second
	DefaultTakeawayConfirmHold    = 5 * time.Second
	DefaultReservationConfirmHold = 4 * time.Second
)

// FlowConfig tunes the simulated checkout latencies.
type FlowConfig struct {
	SubmitDelay time.Duration
	ConfirmHold time.Duration
}

// DefaultFlowConfig returns the stock timings for a flow kind.
func DefaultFlowConfig(kind Kind) FlowConfig {
	cfg := FlowConfig{SubmitDelay: DefaultSubmitDelay}
	switch kind {
	case KindTakeaway:
		cfg.ConfirmHold = DefaultTakeawayConfirmHold
	case KindReservation:
		cfg.ConfirmHold = DefaultReservationConfirmHold
	default:
		cfg.ConfirmHold = DefaultDeliveryConfirmHold
	}
	return cfg
}

// Confirmation is the terminal payload of a successful submission.
type Confirmation struct {
	OrderID             string        `json:"order_id"`
	Kind                Kind          `json:"kind"`
	TotalItems          int           `json:"total_items,omitempty"`
	TotalPrice          int           `json:"total_price,omitempty"`
	TotalPriceFormatted string        `json:"total_price_formatted,omitempty"`
	PaymentMethod       PaymentMethod `json:"payment_method,omitempty"`
	ConfirmedAt         time.Time     `json:"confirmed_at"`
}

// FlowDeps are the collaborators a flow controller needs. Publisher may be
// nil; confirmed-order events are then skipped.
type FlowDeps struct {
	Cart      *cart.Store
	Clock     clock.Clock
	Publisher events.Publisher
	Logger    apt.Logger
}

// Flow drives one checkout lifecycle for a session: collect the form,
// validate, simulate the order round trip and hold the confirmation before
// resetting. Delivery orders paid by card hand off to the payment simulator
// and confirm only after it reports success.
type Flow struct {
	mu           sync.Mutex
	kind         Kind
	state        FlowState
	form         Form
	fieldErrs    map[string]string
	confirmation *Confirmation
	session      string

	cart      *cart.Store
	clk       clock.Clock
	publisher events.Publisher
	logger    apt.Logger
	cfg       FlowConfig
}

func NewFlow(kind Kind, session string, deps FlowDeps, cfg FlowConfig) *Flow {
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Logger == nil {
		deps.Logger = apt.NewNoopLogger()
	}
	if cfg.SubmitDelay <= 0 {
		cfg.SubmitDelay = DefaultSubmitDelay
	}
	if cfg.ConfirmHold <= 0 {
		cfg.ConfirmHold = DefaultFlowConfig(kind).ConfirmHold
	}
	return &Flow{
		kind:      kind,
		state:     FlowStateIdle,
		form:      Form{},
		session:   session,
		cart:      deps.Cart,
		clk:       deps.Clock,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		cfg:       cfg,
	}
}

// Kind returns the flow's checkout kind.
func (f *Flow) Kind() Kind {
	return f.kind
}

// State returns the flow's current state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// FieldErrors returns the validation errors from the last submit attempt.
func (f *Flow) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.fieldErrs))
	for k, v := range f.fieldErrs {
		out[k] = v
	}
	return out
}

// SetField stores one form value and clears that field's pending error, so a
// correction is reflected without waiting for the next submit.
func (f *Flow) SetField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form[name] = value
	delete(f.fieldErrs, name)
}

// SetForm replaces the whole form in one call.
func (f *Flow) SetForm(form Form) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form = Form{}
	for k, v := range form {
		f.form[k] = v
	}
	f.fieldErrs = nil
}

// Confirmation returns the pending confirmation, or nil outside the hold
// window.
func (f *Flow) Confirmation() *Confirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmation
}

// Submit validates the form and runs the order through. Cash, take-away and
// reservation submissions block for the submit delay and then confirm. A
// card delivery returns ErrPaymentRequired; the caller settles it through
// the payment simulator and the flow confirms via ConfirmPaid.
func (f *Flow) Submit(ctx context.Context) (*Confirmation, error) {
	f.mu.Lock()
	if f.state != FlowStateIdle {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("cannot submit %s checkout from state %s", f.kind, state)
	}

	if errs := Validate(f.kind, f.form); len(errs) > 0 {
		f.fieldErrs = errs
		f.mu.Unlock()
		return nil, ErrInvalidForm
	}
	f.fieldErrs = nil

	if f.kind != KindReservation && (f.cart == nil || f.cart.Empty()) {
		f.mu.Unlock()
		return nil, ErrEmptyCart
	}

	if f.kind == KindDelivery && PaymentMethod(f.form[FieldPaymentMethod]) == PaymentCard {
		f.state = FlowStateSubmitting
		f.mu.Unlock()
		return nil, ErrPaymentRequired
	}

	f.state = FlowStateSubmitting
	f.mu.Unlock()

	select {
	case <-f.clk.After(f.cfg.SubmitDelay):
	case <-ctx.Done():
		f.mu.Lock()
		f.state = FlowStateIdle
		f.mu.Unlock()
		return nil, ctx.Err()
	}

	return f.confirm(ctx), nil
}

// ConfirmPaid completes a card delivery after the payment simulator reports
// success.
func (f *Flow) ConfirmPaid(ctx context.Context) (*Confirmation, error) {
	f.mu.Lock()
	if f.state != FlowStateSubmitting {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("no payment pending in state %s", state)
	}
	f.mu.Unlock()

	return f.confirm(ctx), nil
}

// AbandonPayment returns a card delivery to the form after the payment was
// cancelled. The form values are kept for another attempt.
func (f *Flow) AbandonPayment() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowStateSubmitting {
		return fmt.Errorf("no payment pending in state %s", f.state)
	}
	f.state = FlowStateIdle
	return nil
}

func (f *Flow) confirm(ctx context.Context) *Confirmation {
	f.mu.Lock()

	conf := &Confirmation{
		OrderID:     uuid.NewString(),
		Kind:        f.kind,
		ConfirmedAt: f.clk.Now(),
	}
	if f.kind != KindReservation && f.cart != nil {
		conf.TotalItems = f.cart.TotalItems()
		conf.TotalPrice = f.cart.TotalPrice()
		conf.TotalPriceFormatted = currency.FormatCLP(conf.TotalPrice)
	}
	if f.kind == KindDelivery {
		conf.PaymentMethod = PaymentMethod(f.form[FieldPaymentMethod])
	} else if f.kind == KindTakeaway {
		conf.PaymentMethod = PaymentCash
	}

	f.state = FlowStateConfirmed
	f.confirmation = conf
	form := f.form
	f.mu.Unlock()

	f.publishConfirmed(ctx, conf, form)

	f.clk.AfterFunc(f.cfg.ConfirmHold, f.reset)

	return conf
}

// reset clears the cart and the form once the confirmation hold elapses.
func (f *Flow) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kind != KindReservation && f.cart != nil {
		f.cart.Clear()
	}
	f.form = Form{}
	f.fieldErrs = nil
	f.confirmation = nil
	f.state = FlowStateIdle
}

// publishConfirmed emits the confirmed-order event. Best effort: a missing
// publisher or a publish failure never blocks the confirmation.
func (f *Flow) publishConfirmed(ctx context.Context, conf *Confirmation, form Form) {
	if f.publisher == nil {
		return
	}

	evt := event.OrderConfirmedEvent{
		EventType:     event.TypeOrderConfirmed,
		OrderID:       conf.OrderID,
		Kind:          string(conf.Kind),
		SessionToken:  f.session,
		TotalItems:    conf.TotalItems,
		TotalPrice:    conf.TotalPrice,
		PaymentMethod: string(conf.PaymentMethod),
		CustomerName:  form[FieldName],
		OccurredAt:    conf.ConfirmedAt,
	}
	if f.kind == KindReservation {
		evt.ReservationDate = form[FieldDate]
		evt.ReservationTime = form[FieldTime]
		evt.Guests = form[FieldGuests]
	}

	data, err := json.Marshal(evt)
	if err != nil {
		f.logger.Error("error marshaling confirmed order event", "error", err)
		return
	}
	if err := f.publisher.Publish(ctx, event.TopicOrderConfirmed, data); err != nil {
		f.logger.Error("error publishing confirmed order event", "error", err, "order_id", conf.OrderID)
	}
}
