package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Client-side validation messages. They share the backend's wording so that
// one translation table covers both.
const (
	MsgInvalidAmount   = "Please enter a valid amount greater than zero."
	MsgCardExpired     = "The card has expired. Check the expiration date."
	MsgExpiryFormat    = "The expiration date must use the MM/YY format."
	MsgFieldRequired   = "This field is required."
	MsgInvalidCard     = "Invalid card number."
	MsgInvalidCVV      = "Invalid security code."
	MsgInvalidDocument = "Select a valid document type."
	MsgMaxLength       = "Ensure this field has no more than %s characters."
	MsgInvalidValue    = "Enter a valid value."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their wire names so client and backend payloads line up.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

var (
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	// amountPattern admits plain decimals with an optional exponent; hex
	// floats, underscores and signs are rejected before ParseFloat sees them.
	amountPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// ParseAmount parses user input into a finite amount strictly greater than zero.
func ParseAmount(s string) (Amount, bool) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return Amount(f), true
}

// CheckExpiry validates an MM/YY card expiry against now. It returns "" when
// the expiry is acceptable, otherwise the validation message.
//
// Years are two-digit and compared against now's year mod 100. A card
// expiring in the current month is still valid.
func CheckExpiry(expiry string, now time.Time) string {
	m := expiryPattern.FindStringSubmatch(expiry)
	if m == nil {
		return MsgExpiryFormat
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return MsgExpiryFormat
	}

	curYear := now.Year() % 100
	curMonth := int(now.Month())
	if year < curYear || (year == curYear && month < curMonth) {
		return MsgCardExpired
	}
	return ""
}

// Validate runs the local pre-checks and builds the wire request.
// On failure it returns a KindValidation error whose payload is keyed by
// field name; no request should be sent.
func (s TransactionSubmission) Validate(now time.Time) (TransactionRequest, error) {
	fields := make(map[string][]string)

	amount, ok := ParseAmount(s.Amount)
	if !ok {
		fields["amount"] = append(fields["amount"], MsgInvalidAmount)
	}
	if msg := CheckExpiry(s.ExpirationDate, now); msg != "" {
		fields["expiration_date"] = append(fields["expiration_date"], msg)
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return TransactionRequest{}, ErrValidation.WithCause(err)
		}
		for _, fe := range verrs {
			name := fe.Field()
			msg := fieldMessage(fe)
			if !slices.Contains(fields[name], msg) {
				fields[name] = append(fields[name], msg)
			}
		}
	}

	if len(fields) > 0 {
		return TransactionRequest{}, ErrValidation.WithPayload(Payload{Fields: fields})
	}

	return TransactionRequest{
		Amount:         amount,
		Description:    s.Description,
		Name:           s.Name,
		DocumentType:   s.DocumentType,
		DocumentNumber: s.DocumentNumber,
		CardNumber:     s.CardNumber,
		ExpirationDate: s.ExpirationDate,
		SecurityCode:   s.SecurityCode,
	}, nil
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return MsgFieldRequired
	}
	switch fe.Field() {
	case "card_number":
		return MsgInvalidCard
	case "security_code":
		return MsgInvalidCVV
	case "document_type":
		return MsgInvalidDocument
	}
	if fe.Tag() == "max" {
		return fmt.Sprintf(MsgMaxLength, fe.Param())
	}
	return MsgInvalidValue
}
