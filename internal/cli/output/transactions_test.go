package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/yndnr/minipay-go/internal/core/domain"
)

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{{
		ID:              7,
		Amount:          25000,
		Description:     "Coffee",
		Name:            "Ana Gomez",
		DocumentType:    domain.DocumentNationalID,
		DocumentNumber:  "1020",
		CardNumber:      "4111111111111234",
		ExpirationDate:  "12/27",
		TransactionDate: domain.Timestamp{Time: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)},
	}}
}

func TestTransactionList_Table(t *testing.T) {
	list := TransactionList{Items: sampleTransactions(), Locale: language.MustParse("es-CO")}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, list); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"TARJETA", "****1234", "CC-1020", "Ana Gomez", "Coffee", "7"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "4111111111111234") {
		t.Error("full card number rendered")
	}
}

func TestTransactionList_EnglishHeaders(t *testing.T) {
	list := TransactionList{Items: sampleTransactions(), Locale: language.English}
	tbl := list.Table()
	if tbl.Headers[4] != domain.ColCard {
		t.Errorf("header = %q, want %q", tbl.Headers[4], domain.ColCard)
	}
}

func TestTransactionList_JSONAndYAMLAreMasked(t *testing.T) {
	list := TransactionList{Items: sampleTransactions(), Locale: language.English}

	for _, f := range []Formatter{&JSONFormatter{}, &YAMLFormatter{}} {
		var buf bytes.Buffer
		if err := f.Format(&buf, list); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "4111111111111234") {
			t.Errorf("%T rendered full card number:\n%s", f, buf.String())
		}
		if !strings.Contains(buf.String(), "****1234") {
			t.Errorf("%T missing masked card:\n%s", f, buf.String())
		}
	}

	data, _ := json.Marshal(list)
	var back []domain.Transaction
	if err := json.Unmarshal(data, &back); err != nil || len(back) != 1 || back[0].ID != 7 {
		t.Errorf("json = %s, err %v", data, err)
	}
	if list.Items[0].CardNumber != "4111111111111234" {
		t.Error("rendering mutated the source")
	}
}
