package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DocumentType identifies the holder's identity document.
type DocumentType string

const (
	// DocumentNationalID is a national identity card.
	DocumentNationalID DocumentType = "CC"
	// DocumentPassport is a passport.
	DocumentPassport DocumentType = "PP"
)

// Valid reports whether d is one of the known document types.
func (d DocumentType) Valid() bool {
	return d == DocumentNationalID || d == DocumentPassport
}

// DefaultCurrency is assumed when the backend omits the currency.
const DefaultCurrency = "COP"

// Transaction is a payment simulation as returned by the backend.
// The client never derives or mutates it.
type Transaction struct {
	ID              int64        `json:"id" yaml:"id"`
	Currency        string       `json:"currency,omitempty" yaml:"currency,omitempty"`
	Amount          Amount       `json:"amount" yaml:"amount"`
	Description     string       `json:"description" yaml:"description"`
	Name            string       `json:"name" yaml:"name"`
	DocumentType    DocumentType `json:"document_type" yaml:"document_type"`
	DocumentNumber  string       `json:"document_number" yaml:"document_number"`
	CardNumber      string       `json:"card_number" yaml:"card_number"`
	ExpirationDate  string       `json:"expiration_date" yaml:"expiration_date"`
	TransactionDate Timestamp    `json:"transaction_date" yaml:"transaction_date"`
}

// CurrencyCode returns the transaction currency, falling back to DefaultCurrency.
func (t *Transaction) CurrencyCode() string {
	if c := strings.TrimSpace(t.Currency); c != "" {
		return strings.ToUpper(c)
	}
	return DefaultCurrency
}

// MaskedCard returns the card number with all but the last four digits hidden.
func (t *Transaction) MaskedCard() string {
	return MaskCardNumber(t.CardNumber)
}

// Document returns the document as TYPE-NUMBER.
func (t *Transaction) Document() string {
	return fmt.Sprintf("%s-%s", t.DocumentType, t.DocumentNumber)
}

// Masked returns a copy safe for display: the card number is masked.
func (t Transaction) Masked() Transaction {
	t.CardNumber = MaskCardNumber(t.CardNumber)
	return t
}

// MaskCardNumber renders a card number as "****" followed by its last four characters.
func MaskCardNumber(card string) string {
	card = strings.TrimSpace(card)
	if len(card) > 4 {
		card = card[len(card)-4:]
	}
	return "****" + card
}

// Amount is a decimal amount. It decodes from a JSON number or a JSON string
// (decimal fields are often serialized as strings) and encodes as a number.
type Amount float64

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("amount is not finite: %v", f)
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	*a = Amount(f)
	return nil
}

// Float64 returns the amount as a float64.
func (a Amount) Float64() float64 {
	return float64(a)
}

// Timestamp is a transaction date. It accepts RFC 3339 as well as the
// zone-less ISO layouts some backends emit.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t Timestamp) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.Format(time.RFC3339), nil
}

// TransactionSubmission is the user input for a payment simulation.
// Amount is kept as typed by the user and parsed by Validate.
type TransactionSubmission struct {
	Amount         string       `json:"amount"`
	Description    string       `json:"description" validate:"required,max=255"`
	Name           string       `json:"name" validate:"required,max=100"`
	DocumentType   DocumentType `json:"document_type" validate:"required,oneof=CC PP"`
	DocumentNumber string       `json:"document_number" validate:"required,max=20"`
	CardNumber     string       `json:"card_number" validate:"required,number,min=13,max=19"`
	ExpirationDate string       `json:"expiration_date"`
	SecurityCode   string       `json:"security_code" validate:"required,number,min=3,max=4"`
}

// TransactionRequest is the wire body of POST /api/transactions/.
type TransactionRequest struct {
	Amount         Amount       `json:"amount"`
	Description    string       `json:"description"`
	Name           string       `json:"name"`
	DocumentType   DocumentType `json:"document_type"`
	DocumentNumber string       `json:"document_number"`
	CardNumber     string       `json:"card_number"`
	ExpirationDate string       `json:"expiration_date"`
	SecurityCode   string       `json:"security_code"`
}
