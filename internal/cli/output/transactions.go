package output

import (
	"encoding/json"
	"strconv"

	"golang.org/x/text/language"

	"github.com/yndnr/minipay-go/internal/core/domain"
)

// TransactionList renders transactions with card numbers masked in every
// format.
type TransactionList struct {
	Items  []domain.Transaction
	Locale language.Tag
}

func (l TransactionList) masked() []domain.Transaction {
	out := make([]domain.Transaction, len(l.Items))
	for i, tx := range l.Items {
		out[i] = tx.Masked()
	}
	return out
}

// Table implements Tabler.
func (l TransactionList) Table() *Table {
	p := domain.Printer(l.Locale)
	t := NewTable(
		p.Sprintf(domain.ColID),
		p.Sprintf(domain.ColDate),
		p.Sprintf(domain.ColHolder),
		p.Sprintf(domain.ColDocument),
		p.Sprintf(domain.ColCard),
		p.Sprintf(domain.ColAmount),
		p.Sprintf(domain.ColDescription),
	)
	for _, tx := range l.Items {
		t.AddRow(
			strconv.FormatInt(tx.ID, 10),
			FormatDate(tx.TransactionDate.Time.Local(), l.Locale),
			tx.Name,
			tx.Document(),
			tx.MaskedCard(),
			FormatMoney(tx.Amount.Float64(), tx.CurrencyCode(), l.Locale),
			tx.Description,
		)
	}
	return t
}

// MarshalJSON implements json.Marshaler.
func (l TransactionList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.masked())
}

// MarshalYAML implements yaml.Marshaler.
func (l TransactionList) MarshalYAML() (any, error) {
	return l.masked(), nil
}
