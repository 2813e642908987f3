package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fuegoaustral/storefront/internal/cart"
	"github.com/fuegoaustral/storefront/internal/clock"
	"github.com/fuegoaustral/storefront/internal/menu"
)

func margarita() *menu.MenuItem {
	return &menu.MenuItem{ID: "margarita", Name: "Margarita", Price: 6500, Category: menu.CategorySignature}
}

func cartWith(items ...*menu.MenuItem) *cart.Store {
	store := cart.NewStore()
	for _, item := range items {
		store.Add(item)
	}
	return store
}

// waitForWaiters blocks until the fake clock has n pending timers, so the
// test advances only after the flow goroutine is parked on the clock.
func waitForWaiters(t *testing.T, fake *clock.Fake, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fake.Waiters() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d clock waiters", n)
}

type submitResult struct {
	conf *Confirmation
	err  error
}

func submitAsync(flow *Flow) <-chan submitResult {
	done := make(chan submitResult, 1)
	go func() {
		conf, err := flow.Submit(context.Background())
		done <- submitResult{conf: conf, err: err}
	}()
	return done
}

func TestFlowCashDeliveryConfirms(t *testing.T) {
	fake := clock.NewFake()
	store := cartWith(margarita(), margarita())
	pub := &MockPublisher{}

	flow := NewFlow(KindDelivery, "session-1", FlowDeps{
		Cart:      store,
		Clock:     fake,
		Publisher: pub,
	}, FlowConfig{})
	flow.SetField(FieldPaymentMethod, "cash")

	done := submitAsync(flow)
	waitForWaiters(t, fake, 1)

	if got := flow.State(); got != FlowStateSubmitting {
		t.Fatalf("State() during submit = %s, want %s", got, FlowStateSubmitting)
	}

	fake.Advance(DefaultSubmitDelay)
	res := <-done
	if res.err != nil {
		t.Fatalf("Submit() error = %v", res.err)
	}

	conf := res.conf
	if conf.TotalItems != 2 || conf.TotalPrice != 13000 {
		t.Errorf("confirmation totals = %d items / %d, want 2 / 13000", conf.TotalItems, conf.TotalPrice)
	}
	if conf.TotalPriceFormatted != "$13.000" {
		t.Errorf("TotalPriceFormatted = %q, want $13.000", conf.TotalPriceFormatted)
	}
	if conf.PaymentMethod != PaymentCash {
		t.Errorf("PaymentMethod = %s, want cash", conf.PaymentMethod)
	}
	if conf.OrderID == "" {
		t.Error("confirmation is missing an order id")
	}
	if got := flow.State(); got != FlowStateConfirmed {
		t.Errorf("State() after submit = %s, want %s", got, FlowStateConfirmed)
	}
	if flow.Confirmation() == nil {
		t.Error("Confirmation() = nil inside the hold window")
	}

	evt := pub.LastOrderConfirmed(t)
	if evt.OrderID != conf.OrderID || evt.Kind != "delivery" || evt.TotalPrice != 13000 {
		t.Errorf("published event = %+v, want order %s delivery 13000", evt, conf.OrderID)
	}

	// The hold elapses: cart cleared, form reset, flow idle again.
	fake.Advance(DefaultDeliveryConfirmHold)
	if !store.Empty() {
		t.Error("cart should be empty after the confirmation hold")
	}
	if got := flow.State(); got != FlowStateIdle {
		t.Errorf("State() after hold = %s, want %s", got, FlowStateIdle)
	}
	if flow.Confirmation() != nil {
		t.Error("Confirmation() should reset after the hold")
	}
}

func TestFlowInvalidFormSurfacesFieldErrors(t *testing.T) {
	flow := NewFlow(KindReservation, "session-1", FlowDeps{Clock: clock.NewFake()}, FlowConfig{})
	flow.SetForm(Form{
		FieldName:   "",
		FieldEmail:  "not-an-email",
		FieldPhone:  "123",
		FieldDate:   "2099-01-01",
		FieldTime:   "19:00",
		FieldGuests: "2",
	})

	_, err := flow.Submit(context.Background())
	if !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("Submit() error = %v, want ErrInvalidForm", err)
	}
	if got := flow.State(); got != FlowStateIdle {
		t.Fatalf("State() after invalid submit = %s, want %s", got, FlowStateIdle)
	}

	errs := flow.FieldErrors()
	if len(errs) != 2 {
		t.Fatalf("FieldErrors() = %v, want exactly name and email", errs)
	}

	// Correcting a field clears only its error.
	flow.SetField(FieldName, "Violeta Parra")
	errs = flow.FieldErrors()
	if _, ok := errs[FieldName]; ok {
		t.Error("name error should clear when the field is set")
	}
	if _, ok := errs[FieldEmail]; !ok {
		t.Error("email error should survive an unrelated field update")
	}
}

func TestFlowRejectsEmptyCart(t *testing.T) {
	flow := NewFlow(KindDelivery, "session-1", FlowDeps{
		Cart:  cart.NewStore(),
		Clock: clock.NewFake(),
	}, FlowConfig{})
	flow.SetField(FieldPaymentMethod, "cash")

	_, err := flow.Submit(context.Background())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("Submit() error = %v, want ErrEmptyCart", err)
	}
}

func TestFlowReservationSkipsCart(t *testing.T) {
	fake := clock.NewFake()
	pub := &MockPublisher{}
	flow := NewFlow(KindReservation, "session-1", FlowDeps{Clock: fake, Publisher: pub}, FlowConfig{})
	flow.SetForm(Form{
		FieldName:   "Gabriela Mistral",
		FieldEmail:  "gabriela@example.cl",
		FieldPhone:  "+56 9 8765 4321",
		FieldDate:   "2099-02-14",
		FieldTime:   "21:00",
		FieldGuests: "2",
	})

	done := submitAsync(flow)
	waitForWaiters(t, fake, 1)
	fake.Advance(DefaultSubmitDelay)

	res := <-done
	if res.err != nil {
		t.Fatalf("Submit() error = %v", res.err)
	}
	if res.conf.TotalItems != 0 || res.conf.TotalPrice != 0 {
		t.Errorf("reservation totals = %d / %d, want zero", res.conf.TotalItems, res.conf.TotalPrice)
	}

	evt := pub.LastOrderConfirmed(t)
	if evt.ReservationDate != "2099-02-14" || evt.Guests != "2" {
		t.Errorf("published event = %+v, want reservation details", evt)
	}
}

func TestFlowCardDeliveryConfirmsAfterPayment(t *testing.T) {
	fake := clock.NewFake()
	store := cartWith(margarita())
	pub := &MockPublisher{}

	flow := NewFlow(KindDelivery, "session-1", FlowDeps{
		Cart:      store,
		Clock:     fake,
		Publisher: pub,
	}, FlowConfig{})
	flow.SetField(FieldPaymentMethod, "card")

	_, err := flow.Submit(context.Background())
	if !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("Submit() error = %v, want ErrPaymentRequired", err)
	}
	if got := flow.State(); got != FlowStateSubmitting {
		t.Fatalf("State() awaiting payment = %s, want %s", got, FlowStateSubmitting)
	}

	conf, err := flow.ConfirmPaid(context.Background())
	if err != nil {
		t.Fatalf("ConfirmPaid() error = %v", err)
	}
	if conf.PaymentMethod != PaymentCard {
		t.Errorf("PaymentMethod = %s, want card", conf.PaymentMethod)
	}
	if got := flow.State(); got != FlowStateConfirmed {
		t.Errorf("State() after payment = %s, want %s", got, FlowStateConfirmed)
	}

	fake.Advance(DefaultDeliveryConfirmHold)
	if !store.Empty() {
		t.Error("cart should be empty after the confirmation hold")
	}
}

func TestFlowAbandonedPaymentKeepsForm(t *testing.T) {
	fake := clock.NewFake()
	store := cartWith(margarita())

	flow := NewFlow(KindDelivery, "session-1", FlowDeps{Cart: store, Clock: fake}, FlowConfig{})
	flow.SetField(FieldPaymentMethod, "card")

	if _, err := flow.Submit(context.Background()); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("Submit() error = %v, want ErrPaymentRequired", err)
	}
	if err := flow.AbandonPayment(); err != nil {
		t.Fatalf("AbandonPayment() error = %v", err)
	}
	if got := flow.State(); got != FlowStateIdle {
		t.Fatalf("State() after abandon = %s, want %s", got, FlowStateIdle)
	}
	if store.Empty() {
		t.Error("cart must survive an abandoned payment")
	}

	// The form is kept, so resubmitting heads straight back to payment.
	if _, err := flow.Submit(context.Background()); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("resubmit error = %v, want ErrPaymentRequired", err)
	}
}

func TestFlowPublishFailureDoesNotBlockConfirmation(t *testing.T) {
	fake := clock.NewFake()
	store := cartWith(margarita())
	pub := &MockPublisher{err: errors.New("nats down")}

	flow := NewFlow(KindDelivery, "session-1", FlowDeps{
		Cart:      store,
		Clock:     fake,
		Publisher: pub,
	}, FlowConfig{})
	flow.SetField(FieldPaymentMethod, "cash")

	done := submitAsync(flow)
	waitForWaiters(t, fake, 1)
	fake.Advance(DefaultSubmitDelay)

	res := <-done
	if res.err != nil {
		t.Fatalf("Submit() error = %v", res.err)
	}
	if res.conf == nil {
		t.Fatal("confirmation missing despite publish failure")
	}
}
