// AngelaMos | 2026
// repository.go

package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

// ErrDefaultInUse is returned when removing a default that still has siblings.
var ErrDefaultInUse = core.ValidationError("set another default payment method before removing this one")

type Repository interface {
	CreatePaymentMethod(ctx context.Context, pm *PaymentMethod) error
	GetPaymentMethod(ctx context.Context, tenantID, id string) (*PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, tenantID string) ([]PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, tenantID, id string) error
	DeletePaymentMethod(ctx context.Context, tenantID, id string) error
	DeletePaymentMethodByProcessorID(ctx context.Context, processorID string) (*PaymentMethod, error)

	UpsertInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, tenantID, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, tenantID string, filter InvoiceFilter, page core.PageParams) ([]Invoice, int, error)
	InvoiceTotals(ctx context.Context, tenantID string) (InvoiceTotals, error)
}

type repository struct {
	db core.TxDB
}

func NewRepository(db core.TxDB) Repository {
	return &repository{db: db}
}

const methodColumns = `id, tenant_id, processor_id, type, brand, last4, exp_month, exp_year,
		       bank_name, is_default, created_at, updated_at`

const invoiceColumns = `id, tenant_id, processor_invoice_id, period_start, period_end, amount,
		       currency, status, hosted_url, due_at, paid_at, created_at, updated_at`

func (r *repository) CreatePaymentMethod(ctx context.Context, pm *PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (tenant_id, processor_id, type, brand, last4, exp_month, exp_year, bank_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + methodColumns

	err := r.db.GetContext(ctx, pm, query,
		pm.TenantID,
		pm.ProcessorID,
		pm.Type,
		pm.Brand,
		pm.Last4,
		pm.ExpMonth,
		pm.ExpYear,
		pm.BankName,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create payment method: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create payment method: %w", err)
	}

	return nil
}

func (r *repository) GetPaymentMethod(ctx context.Context, tenantID, id string) (*PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods WHERE id = $1 AND tenant_id = $2`

	var pm PaymentMethod
	err := r.db.GetContext(ctx, &pm, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get payment method: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment method: %w", err)
	}

	return &pm, nil
}

func (r *repository) ListPaymentMethods(ctx context.Context, tenantID string) ([]PaymentMethod, error) {
	query := `
		SELECT ` + methodColumns + `
		FROM payment_methods
		WHERE tenant_id = $1
		ORDER BY is_default DESC, created_at DESC`

	methods := []PaymentMethod{}
	if err := r.db.SelectContext(ctx, &methods, query, tenantID); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}

	return methods, nil
}

// SetDefaultPaymentMethod clears the tenant's current default and sets id in
// one transaction, so readers never see two defaults.
func (r *repository) SetDefaultPaymentMethod(ctx context.Context, tenantID, id string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE payment_methods SET is_default = FALSE, updated_at = NOW()
			 WHERE tenant_id = $1 AND is_default`, tenantID); err != nil {
			return fmt.Errorf("clear default payment method: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE payment_methods SET is_default = TRUE, updated_at = NOW()
			 WHERE id = $1 AND tenant_id = $2`, id, tenantID)
		if err != nil {
			return fmt.Errorf("set default payment method: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("set default payment method: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("set default payment method: %w", core.ErrNotFound)
		}

		return nil
	})
}

// DeletePaymentMethod refuses to remove the default while other methods
// remain. Removing the only method is allowed.
func (r *repository) DeletePaymentMethod(ctx context.Context, tenantID, id string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var isDefault bool
		err := tx.GetContext(ctx, &isDefault,
			`SELECT is_default FROM payment_methods WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
			id, tenantID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete payment method: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("delete payment method: %w", err)
		}

		if isDefault {
			var others int
			if err := tx.GetContext(ctx, &others,
				`SELECT COUNT(*) FROM payment_methods WHERE tenant_id = $1 AND id <> $2`,
				tenantID, id); err != nil {
				return fmt.Errorf("count payment methods: %w", err)
			}
			if others > 0 {
				return ErrDefaultInUse
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM payment_methods WHERE id = $1 AND tenant_id = $2`, id, tenantID); err != nil {
			return fmt.Errorf("delete payment method: %w", err)
		}

		return nil
	})
}

func (r *repository) DeletePaymentMethodByProcessorID(ctx context.Context, processorID string) (*PaymentMethod, error) {
	query := `DELETE FROM payment_methods WHERE processor_id = $1 RETURNING ` + methodColumns

	var pm PaymentMethod
	err := r.db.GetContext(ctx, &pm, query, processorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delete payment method: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("delete payment method: %w", err)
	}

	return &pm, nil
}

// UpsertInvoice keys on the processor invoice id. Events may arrive out of
// order, so every field is overwritten with the latest snapshot.
func (r *repository) UpsertInvoice(ctx context.Context, inv *Invoice) error {
	query := `
		INSERT INTO invoices (tenant_id, processor_invoice_id, period_start, period_end, amount,
		                      currency, status, hosted_url, due_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (processor_invoice_id) DO UPDATE
		SET period_start = EXCLUDED.period_start,
		    period_end = EXCLUDED.period_end,
		    amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    status = EXCLUDED.status,
		    hosted_url = EXCLUDED.hosted_url,
		    due_at = EXCLUDED.due_at,
		    paid_at = COALESCE(EXCLUDED.paid_at, invoices.paid_at),
		    updated_at = NOW()
		RETURNING ` + invoiceColumns

	err := r.db.GetContext(ctx, inv, query,
		inv.TenantID,
		inv.ProcessorInvoiceID,
		inv.PeriodStart,
		inv.PeriodEnd,
		inv.Amount,
		inv.Currency,
		inv.Status,
		inv.HostedURL,
		inv.DueAt,
		inv.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("upsert invoice: %w", err)
	}

	return nil
}

func (r *repository) GetInvoice(ctx context.Context, tenantID, id string) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND tenant_id = $2`

	var inv Invoice
	err := r.db.GetContext(ctx, &inv, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invoice: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	return &inv, nil
}

func (r *repository) ListInvoices(
	ctx context.Context,
	tenantID string,
	filter InvoiceFilter,
	page core.PageParams,
) ([]Invoice, int, error) {
	where := &core.Where{}
	where.Add("tenant_id = ?", tenantID)
	where.AddIf(filter.Status, "status = ?")
	if filter.From != nil {
		where.Add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		where.Add("created_at <= ?", *filter.To)
	}
	args := where.Args()

	countQuery := "SELECT COUNT(*) FROM invoices " + where.Clause()
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM invoices %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, invoiceColumns, where.Clause(), where.Next(), where.Next()+1)

	invoices, total, err := core.FetchPage(ctx,
		func(ctx context.Context) (int, error) {
			var n int
			err := r.db.GetContext(ctx, &n, countQuery, args...)
			return n, err
		},
		func(ctx context.Context) ([]Invoice, error) {
			var rows []Invoice
			err := r.db.SelectContext(ctx, &rows, listQuery,
				append(args, page.Limit, page.Offset())...)
			return rows, err
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	return invoices, total, nil
}

func (r *repository) InvoiceTotals(ctx context.Context, tenantID string) (InvoiceTotals, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'open') AS open_count,
		       COALESCE(SUM(amount) FILTER (WHERE status = 'open'), 0) AS open_amount,
		       COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0) AS paid_amount,
		       MAX(paid_at) AS last_paid_at
		FROM invoices
		WHERE tenant_id = $1`

	var totals InvoiceTotals
	if err := r.db.GetContext(ctx, &totals, query, tenantID); err != nil {
		return InvoiceTotals{}, fmt.Errorf("invoice totals: %w", err)
	}

	return totals, nil
}
