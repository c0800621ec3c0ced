package command

import (
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minipay-go/internal/cli/output"
	"github.com/yndnr/minipay-go/internal/core/domain"
)

// PayCommand returns the payment simulation command.
func PayCommand() *cli.Command {
	return &cli.Command{
		Name:  "pay",
		Usage: "Simulate a payment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Usage: "Amount, greater than zero"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Payment description"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Card holder name"},
			&cli.StringFlag{Name: "document-type", Value: string(domain.DocumentNationalID), Usage: "Document type: CC or PP"},
			&cli.StringFlag{Name: "document-number", Usage: "Document number"},
			&cli.StringFlag{Name: "card-number", Usage: "Card number"},
			&cli.StringFlag{Name: "expiration", Usage: "Card expiration as MM/YY"},
			&cli.StringFlag{Name: "security-code", Usage: "Card security code"},
		},
		Action: payAction,
	}
}

func payAction(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	_, client, err := rt.Clients()
	if err != nil {
		return err
	}

	in := domain.TransactionSubmission{
		Amount:         c.String("amount"),
		Description:    c.String("description"),
		Name:           c.String("name"),
		DocumentType:   domain.DocumentType(strings.ToUpper(c.String("document-type"))),
		DocumentNumber: c.String("document-number"),
		CardNumber:     c.String("card-number"),
		ExpirationDate: c.String("expiration"),
		SecurityCode:   c.String("security-code"),
	}

	tx, err := client.SubmitTransaction(c.Context, in)
	if err != nil {
		return rt.Fail(err)
	}

	if rt.Format == output.FormatTable {
		rt.Println(domain.MsgPaymentCreated, strconv.FormatInt(tx.ID, 10))
		return nil
	}
	return rt.Print(tx.Masked())
}
