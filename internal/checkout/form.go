package checkout

import (
	"regexp"
	"strings"
)

// Kind identifies one of the three checkout flows.
type Kind string

const (
	KindDelivery    Kind = "delivery"
	KindTakeaway    Kind = "takeaway"
	KindReservation Kind = "reservation"
)

// PaymentMethod is how a delivery order is paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Form field names shared between the flow controllers and the HTTP layer.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldDate            = "date"
	FieldTime            = "time"
	FieldGuests          = "guests"
	FieldPickupTime      = "pickup_time"
	FieldPaymentMethod   = "payment_method"
	FieldSpecialRequests = "special_requests"
)

// Form holds the transient per-page input. Values are raw user text; nothing
// here outlives the confirmation screen.
type Form map[string]string

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Validate is the pure validation function for a flow's form. It returns a
// field-to-message mapping for every required field that is empty or fails a
// format check, and an empty map iff the form is valid.
func Validate(kind Kind, form Form) map[string]string {
	errs := make(map[string]string)

	switch kind {
	case KindDelivery:
		method := PaymentMethod(strings.TrimSpace(form[FieldPaymentMethod]))
		if method == "" {
			errs[FieldPaymentMethod] = "payment method is required"
		} else if method != PaymentCash && method != PaymentCard {
			errs[FieldPaymentMethod] = "payment method must be cash or card"
		}

	case KindTakeaway:
		requireNonEmpty(errs, form, FieldName, "name is required")
		requireNonEmpty(errs, form, FieldPhone, "phone is required")
		requireNonEmpty(errs, form, FieldPickupTime, "pickup time is required")

	case KindReservation:
		requireNonEmpty(errs, form, FieldName, "name is required")
		if strings.TrimSpace(form[FieldEmail]) == "" {
			errs[FieldEmail] = "email is required"
		} else if !emailPattern.MatchString(strings.TrimSpace(form[FieldEmail])) {
			errs[FieldEmail] = "invalid email format"
		}
		requireNonEmpty(errs, form, FieldPhone, "phone is required")
		requireNonEmpty(errs, form, FieldDate, "date is required")
		requireNonEmpty(errs, form, FieldTime, "time is required")
		requireNonEmpty(errs, form, FieldGuests, "guest count is required")
	}

	return errs
}

func requireNonEmpty(errs map[string]string, form Form, field, message string) {
	if strings.TrimSpace(form[field]) == "" {
		errs[field] = message
	}
}
