package checkout

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/fuegoaustral/storefront/internal/clock"
)

// PaymentState is the simulator's position in its state machine.
type PaymentState string

const (
	PaymentStateForm       PaymentState = "form"
	PaymentStateProcessing PaymentState = "processing"
	PaymentStateSucceeded  PaymentState = "succeeded"
	PaymentStateFailed     PaymentState = "failed"
)

const (
	// DefaultProcessDelay stands in for the gateway round trip.
	DefaultProcessDelay = 3 * time.Second
	// DefaultNotifyDelay holds the success screen before the caller is told.
	DefaultNotifyDelay = 2 * time.Second
)

// Installments the card form accepts.
var Installments = []int{1, 3, 6, 12}

// CardInput is the raw card form data. Discarded when the flow exits the
// payment step; never persisted.
type CardInput struct {
	CardNumber     string `json:"card_number"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
	Installments   int    `json:"installments"`
}

// OutcomeSource draws the accept/reject result for one attempt. Injectable so
// tests can force both outcomes.
type OutcomeSource func() bool

// DefaultOutcome accepts roughly four out of five attempts.
func DefaultOutcome() bool {
	return rand.Float64() > 0.2
}

// PaymentConfig tunes the simulated latencies.
type PaymentConfig struct {
	ProcessDelay time.Duration
	NotifyDelay  time.Duration
}

// Simulator emulates a card-payment gateway round trip without contacting a
// real gateway: form entry, processing, then a randomized accept/reject. The
// completion callback fires exactly once per simulator: with true after a
// success settles, or with false when the caller cancels.
type Simulator struct {
	mu         sync.Mutex
	state      PaymentState
	amount     int
	clock      clock.Clock
	outcome    OutcomeSource
	onComplete func(success bool)
	completed  bool
	logger     apt.Logger

	processDelay time.Duration
	notifyDelay  time.Duration
}

func NewSimulator(clk clock.Clock, outcome OutcomeSource, cfg PaymentConfig, onComplete func(bool), logger apt.Logger) *Simulator {
	if clk == nil {
		clk = clock.System()
	}
	if outcome == nil {
		outcome = DefaultOutcome
	}
	if cfg.ProcessDelay <= 0 {
		cfg.ProcessDelay = DefaultProcessDelay
	}
	if cfg.NotifyDelay <= 0 {
		cfg.NotifyDelay = DefaultNotifyDelay
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Simulator{
		state:        PaymentStateForm,
		clock:        clk,
		outcome:      outcome,
		onComplete:   onComplete,
		logger:       logger,
		processDelay: cfg.ProcessDelay,
		notifyDelay:  cfg.NotifyDelay,
	}
}

// State returns the simulator's current state.
func (s *Simulator) State() PaymentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Amount returns the amount of the current attempt.
func (s *Simulator) Amount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amount
}

// Submit validates the card input and starts processing. Validation failures
// come back as a field error map with the simulator still in the form state.
// On a clean submit the returned channel receives the attempt's terminal
// state (succeeded or failed) exactly once.
func (s *Simulator) Submit(amount int, in CardInput) (<-chan PaymentState, map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PaymentStateForm {
		return nil, nil, fmt.Errorf("cannot submit payment from state %s", s.state)
	}
	if amount <= 0 {
		return nil, nil, fmt.Errorf("payment amount must be positive")
	}

	if errs := ValidateCard(in); len(errs) > 0 {
		return nil, errs, nil
	}

	s.amount = amount
	s.state = PaymentStateProcessing

	resolved := make(chan PaymentState, 1)
	s.clock.AfterFunc(s.processDelay, func() {
		s.resolve(resolved)
	})
	return resolved, nil, nil
}

func (s *Simulator) resolve(resolved chan<- PaymentState) {
	s.mu.Lock()
	if s.state != PaymentStateProcessing {
		s.mu.Unlock()
		return
	}

	if s.outcome() {
		s.state = PaymentStateSucceeded
		s.clock.AfterFunc(s.notifyDelay, func() {
			s.complete(true)
		})
	} else {
		s.state = PaymentStateFailed
	}
	state := s.state
	s.mu.Unlock()

	s.logger.Info("simulated payment resolved", "state", string(state))
	resolved <- state
}

// Retry returns a failed attempt to the form so the card can be re-entered.
func (s *Simulator) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PaymentStateFailed {
		return fmt.Errorf("cannot retry payment from state %s", s.state)
	}
	s.state = PaymentStateForm
	return nil
}

// Cancel abandons the payment from the form or after a failure. The
// completion callback fires with false; the success path is never taken.
func (s *Simulator) Cancel() error {
	s.mu.Lock()
	if s.state != PaymentStateForm && s.state != PaymentStateFailed {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot cancel payment from state %s", state)
	}
	s.mu.Unlock()

	s.complete(false)
	return nil
}

// complete fires the completion callback at most once per simulator.
func (s *Simulator) complete(success bool) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	cb := s.onComplete
	s.mu.Unlock()

	if cb != nil {
		cb(success)
	}
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// ValidateCard checks the normalized card input and returns a per-field error
// map, empty iff the input is well formed.
func ValidateCard(in CardInput) map[string]string {
	errs := make(map[string]string)

	number := strings.ReplaceAll(in.CardNumber, " ", "")
	if strings.TrimSpace(in.CardNumber) == "" {
		errs["card_number"] = "card number is required"
	} else if !cardNumberPattern.MatchString(number) {
		errs["card_number"] = "card number must be 16 digits"
	}

	expiry := NormalizeExpiry(in.Expiry)
	if strings.TrimSpace(in.Expiry) == "" {
		errs["expiry"] = "expiry date is required"
	} else if !expiryPattern.MatchString(expiry) {
		errs["expiry"] = "expiry must be MM/YY"
	}

	if strings.TrimSpace(in.CVV) == "" {
		errs["cvv"] = "cvv is required"
	} else if !cvvPattern.MatchString(in.CVV) {
		errs["cvv"] = "cvv must be 3 or 4 digits"
	}

	if strings.TrimSpace(in.CardholderName) == "" {
		errs["cardholder_name"] = "cardholder name is required"
	}

	// An omitted installment count means a single payment.
	if in.Installments == 0 {
		in.Installments = 1
	}
	if !validInstallments(in.Installments) {
		errs["installments"] = "installments must be 1, 3, 6 or 12"
	}

	return errs
}

func validInstallments(n int) bool {
	for _, allowed := range Installments {
		if n == allowed {
			return true
		}
	}
	return false
}

// FormatCardNumber groups the digits into 4-digit blocks for display, the
// same convenience the card form applies while typing.
func FormatCardNumber(raw string) string {
	digits := keepDigits(raw)
	if len(digits) > 16 {
		digits = digits[:16]
	}
	var parts []string
	for i := 0; i < len(digits); i += 4 {
		end := i + 4
		if end > len(digits) {
			end = len(digits)
		}
		parts = append(parts, digits[i:end])
	}
	if len(parts) == 0 {
		return raw
	}
	return strings.Join(parts, " ")
}

// NormalizeExpiry inserts the slash after the month so "1228" and "12/28"
// both validate as "12/28".
func NormalizeExpiry(raw string) string {
	digits := keepDigits(raw)
	if len(digits) >= 2 {
		end := len(digits)
		if end > 4 {
			end = 4
		}
		return digits[:2] + "/" + digits[2:end]
	}
	return digits
}

func keepDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
