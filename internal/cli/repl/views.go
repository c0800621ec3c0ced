package repl

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/yndnr/minipay-go/internal/cli/output"
	"github.com/yndnr/minipay-go/internal/client/guard"
	"github.com/yndnr/minipay-go/internal/core/domain"
)

func (r *REPL) paymentView(_ context.Context, out io.Writer) error {
	fmt.Fprintf(out, "== %s ==\n", r.text(domain.MsgPaymentPrompt))
	fmt.Fprintln(out, r.text(domain.MsgPaymentHint))
	return nil
}

func (r *REPL) loginView(_ context.Context, out io.Writer) error {
	fmt.Fprintf(out, "== %s ==\n", r.text(domain.MsgLoginPrompt))
	if r.session.Authenticated() {
		fmt.Fprintln(out, r.text(domain.MsgAuthenticated))
		return nil
	}
	fmt.Fprintln(out, r.text(domain.MsgLoginHint))
	return nil
}

func (r *REPL) notFoundView(path string) guard.View {
	return guard.ViewFunc(func(_ context.Context, out io.Writer) error {
		fmt.Fprintln(out, r.text(domain.MsgPageNotFound, path))
		return nil
	})
}

// dashboard lists transactions. The listing is fetched once per mount;
// re-renders within the same mount (settings reload) reuse it.
type dashboard struct {
	r *REPL

	mu     sync.Mutex
	gen    uint64
	loaded bool
	items  []domain.Transaction
	err    error
}

func (d *dashboard) Render(ctx context.Context, out io.Writer) error {
	gen := d.r.mount.Load()

	d.mu.Lock()
	cached := d.loaded && d.gen == gen
	items, err := d.items, d.err
	d.mu.Unlock()

	if !cached {
		items, err = d.fetch(ctx)
		if !d.r.mounted(gen, guard.DashboardPath) {
			d.r.log.Debug("discarding listing for unmounted view", "mount", gen)
			return nil
		}
		d.mu.Lock()
		d.gen, d.loaded, d.items, d.err = gen, true, items, err
		d.mu.Unlock()
	}

	s := d.r.Settings()
	fmt.Fprintf(out, "== %s ==\n", domain.Text(s.Locale, domain.MsgTransactionsTitle))
	if err != nil {
		fmt.Fprintln(out, domain.TranslateListError(err, s.Locale))
		return nil
	}
	if len(items) == 0 {
		fmt.Fprintln(out, domain.Text(s.Locale, domain.MsgNoTransactions))
		return nil
	}
	list := output.TransactionList{Items: items, Locale: s.Locale}
	if err := output.NewFormatter(s.Format).Format(out, list); err != nil {
		return err
	}
	if s.Format == output.FormatTable {
		fmt.Fprintln(out, domain.Text(s.Locale, domain.MsgTransactionCount, strconv.Itoa(len(items))))
	}
	return nil
}

func (d *dashboard) fetch(ctx context.Context) ([]domain.Transaction, error) {
	if d.r.spinner {
		sp := output.NewSpinner(d.r.out, d.r.text(domain.MsgLoadingTransactions))
		sp.Start()
		defer sp.Stop()
	}
	return d.r.txs.ListTransactions(ctx)
}
