package pos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

const profileColumns = `name, company, currency, warehouse, COALESCE(customer, ''), selling_price_list,
	write_off_account, write_off_cost_center, write_off_limit::float8, apply_discount_on,
	cash_mode_of_payment, taxes_and_charges, disabled, print_receipt_on_order_complete,
	print_format, letter_head, created_by, created_at, updated_at`

// Store is the persistence surface used by Service.
type Store interface {
	AssignmentChecker
	ListAssigned(ctx context.Context, email string) ([]ProfileSummary, error)
	GetProfile(ctx context.Context, name string) (Profile, error)
	GetCompany(ctx context.Context, name string) (Company, error)
	GetSettings(ctx context.Context, profile string) (Settings, bool, error)
	ListPaymentMethods(ctx context.Context, profile string) ([]PaymentMethod, error)
	ListTaxRows(ctx context.Context, template string) ([]TaxRow, error)
	ListWarehouses(ctx context.Context, company string) ([]WarehouseOption, error)
	GetWarehouse(ctx context.Context, name string) (Warehouse, error)
	GetCustomer(ctx context.Context, name string) (Customer, error)
	ListSalesPersons(ctx context.Context, company string) ([]SalesPerson, error)
	LoadOptions(ctx context.Context) (CreateOptions, error)
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// TxStore exposes the mutations that run inside one transaction.
type TxStore interface {
	LockProfile(ctx context.Context, name string) (Profile, error)
	InsertProfile(ctx context.Context, p Profile) error
	UpdateProfile(ctx context.Context, p Profile) error
	ReplaceChildren(ctx context.Context, p Profile, cols []Collection) error
	SetWarehouse(ctx context.Context, name, warehouse string) error
	DeleteProfile(ctx context.Context, name string) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists profiles in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *Repository) IsAssigned(ctx context.Context, profile, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pos_profile_users WHERE profile = $1 AND lower(user_email) = lower($2))`,
		profile, email).Scan(&exists)
	return exists, err
}

func (r *Repository) ListAssigned(ctx context.Context, email string) ([]ProfileSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT p.name, p.company, p.currency, p.warehouse, p.selling_price_list,
		p.write_off_account, p.write_off_cost_center
		FROM pos_profiles p
		JOIN pos_profile_users u ON u.profile = p.name
		WHERE lower(u.user_email) = lower($1) AND NOT p.disabled
		ORDER BY p.name`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []ProfileSummary{}
	for rows.Next() {
		var s ProfileSummary
		if err := rows.Scan(&s.Name, &s.Company, &s.Currency, &s.Warehouse, &s.SellingPriceList, &s.WriteOffAccount, &s.WriteOffCostCenter); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *Repository) GetProfile(ctx context.Context, name string) (Profile, error) {
	return loadProfile(ctx, r.pool, `SELECT `+profileColumns+` FROM pos_profiles WHERE name = $1`, name)
}

func (r *Repository) GetCompany(ctx context.Context, name string) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `SELECT name, abbr, default_currency, country, tax_id FROM companies WHERE name = $1`, name).
		Scan(&c.Name, &c.Abbr, &c.DefaultCurrency, &c.Country, &c.TaxID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, fmt.Errorf("%w: company %s", httpx.ErrNotFound, name)
	}
	return c, err
}

func (r *Repository) GetSettings(ctx context.Context, profile string) (Settings, bool, error) {
	var (
		s                                                          Settings
		taxInclusive, editAdditional, editItem, usePct, disableRnd bool
		credit, ret, writeOff, partial, negative                   bool
	)
	err := r.pool.QueryRow(ctx, `SELECT tax_inclusive, allow_user_to_edit_additional_discount, allow_user_to_edit_item_discount,
		use_percentage_discount, max_discount_allowed::float8, disable_rounded_total, allow_credit_sale, allow_return,
		allow_write_off_change, allow_partial_payment, decimal_precision, allow_negative_stock, enable_sales_persons
		FROM pos_settings WHERE pos_profile = $1 AND enabled ORDER BY name LIMIT 1`, profile).
		Scan(&taxInclusive, &editAdditional, &editItem, &usePct, &s.MaxDiscountAllowed, &disableRnd, &credit, &ret,
			&writeOff, &partial, &s.DecimalPrecision, &negative, &s.EnableSalesPersons)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	s.TaxInclusive = boolInt(taxInclusive)
	s.AllowUserToEditAdditionalDiscount = boolInt(editAdditional)
	s.AllowUserToEditItemDiscount = boolInt(editItem)
	s.UsePercentageDiscount = boolInt(usePct)
	s.DisableRoundedTotal = boolInt(disableRnd)
	s.AllowCreditSale = boolInt(credit)
	s.AllowReturn = boolInt(ret)
	s.AllowWriteOffChange = boolInt(writeOff)
	s.AllowPartialPayment = boolInt(partial)
	s.AllowNegativeStock = boolInt(negative)
	return s, true, nil
}

func (r *Repository) ListPaymentMethods(ctx context.Context, profile string) ([]PaymentMethod, error) {
	return listPayments(ctx, r.pool, profile)
}

func (r *Repository) ListTaxRows(ctx context.Context, template string) ([]TaxRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT account_head, charge_type, rate::float8, description, included_in_print_rate, idx
		FROM sales_tax_template_rows WHERE template = $1 ORDER BY idx`, template)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []TaxRow{}
	for rows.Next() {
		var (
			row      TaxRow
			included bool
		)
		if err := rows.Scan(&row.AccountHead, &row.ChargeType, &row.Rate, &row.Description, &included, &row.Idx); err != nil {
			return nil, err
		}
		row.IncludedInPrintRate = boolInt(included)
		list = append(list, row)
	}
	return list, rows.Err()
}

func (r *Repository) ListWarehouses(ctx context.Context, company string) ([]WarehouseOption, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, warehouse_name FROM warehouses
		WHERE company = $1 AND NOT is_group AND NOT disabled ORDER BY warehouse_name`, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []WarehouseOption{}
	for rows.Next() {
		var w WarehouseOption
		if err := rows.Scan(&w.Name, &w.WarehouseName); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func (r *Repository) GetWarehouse(ctx context.Context, name string) (Warehouse, error) {
	var w Warehouse
	err := r.pool.QueryRow(ctx, `SELECT name, warehouse_name, company, disabled, is_group FROM warehouses WHERE name = $1`, name).
		Scan(&w.Name, &w.WarehouseName, &w.Company, &w.Disabled, &w.IsGroup)
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, fmt.Errorf("%w: warehouse %s not found", httpx.ErrNotFound, name)
	}
	return w, err
}

func (r *Repository) GetCustomer(ctx context.Context, name string) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT name, customer_name, COALESCE(customer_group, '') FROM customers WHERE name = $1`, name).
		Scan(&c.Name, &c.CustomerName, &c.CustomerGroup)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("%w: customer %s not found", httpx.ErrNotFound, name)
	}
	return c, err
}

func (r *Repository) ListSalesPersons(ctx context.Context, company string) ([]SalesPerson, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, sales_person_name, commission_rate::float8, employee FROM sales_persons
		WHERE enabled AND NOT is_group AND ($1::text = '' OR company = $1)
		ORDER BY sales_person_name`, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []SalesPerson{}
	for rows.Next() {
		var sp SalesPerson
		if err := rows.Scan(&sp.Name, &sp.SalesPersonName, &sp.CommissionRate, &sp.Employee); err != nil {
			return nil, err
		}
		list = append(list, sp)
	}
	return list, rows.Err()
}

// LoadOptions lists the reference data offered by the profile form. Users are filled in by the service.
func (r *Repository) LoadOptions(ctx context.Context) (CreateOptions, error) {
	var (
		opts CreateOptions
		err  error
	)
	named := []struct {
		dest  *[]NamedOption
		query string
	}{
		{&opts.Warehouses, `SELECT name FROM warehouses WHERE NOT disabled AND NOT is_group ORDER BY name`},
		{&opts.Customers, `SELECT name FROM customers WHERE NOT disabled ORDER BY name`},
		{&opts.Payments, `SELECT name FROM modes_of_payment WHERE enabled ORDER BY name`},
		{&opts.WriteOffAccounts, `SELECT name FROM accounts WHERE report_type = 'Profit and Loss' AND NOT disabled AND NOT is_group ORDER BY name`},
		{&opts.WriteOffCostCenters, `SELECT name FROM cost_centers WHERE NOT disabled AND NOT is_group ORDER BY name`},
		{&opts.ItemGroups, `SELECT name FROM item_groups ORDER BY name`},
		{&opts.CustomerGroups, `SELECT name FROM customer_groups ORDER BY name`},
	}
	for _, n := range named {
		if *n.dest, err = r.listNames(ctx, n.query); err != nil {
			return CreateOptions{}, err
		}
	}
	opts.CashModeOfPayment = opts.Payments

	rows, err := r.pool.Query(ctx, `SELECT name, currency_name, symbol FROM currencies WHERE enabled ORDER BY name`)
	if err != nil {
		return CreateOptions{}, err
	}
	defer rows.Close()
	opts.Currencies = []CurrencyOption{}
	for rows.Next() {
		var c CurrencyOption
		if err := rows.Scan(&c.Name, &c.CurrencyName, &c.Symbol); err != nil {
			return CreateOptions{}, err
		}
		opts.Currencies = append(opts.Currencies, c)
	}
	if err := rows.Err(); err != nil {
		return CreateOptions{}, err
	}
	opts.ApplyDiscountOnOptions = applyDiscountOptions()
	return opts, nil
}

func (r *Repository) listNames(ctx context.Context, query string) ([]NamedOption, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	out := make([]NamedOption, 0, len(names))
	for _, n := range names {
		out = append(out, NamedOption{Name: n})
	}
	return out, nil
}

func (t *txRepo) LockProfile(ctx context.Context, name string) (Profile, error) {
	return loadProfile(ctx, t.tx, `SELECT `+profileColumns+` FROM pos_profiles WHERE name = $1 FOR UPDATE`, name)
}

func (t *txRepo) InsertProfile(ctx context.Context, p Profile) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO pos_profiles (name, company, currency, warehouse, customer, selling_price_list,
		write_off_account, write_off_cost_center, write_off_limit, apply_discount_on, cash_mode_of_payment,
		taxes_and_charges, disabled, print_receipt_on_order_complete, print_format, letter_head, created_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.Name, p.Company, p.Currency, p.Warehouse, p.Customer, p.SellingPriceList,
		p.WriteOffAccount, p.WriteOffCostCenter, p.WriteOffLimit, p.ApplyDiscountOn, p.CashModeOfPayment,
		p.TaxesAndCharges, p.Disabled, p.PrintReceiptOnOrderComplete, p.PrintFormat, p.LetterHead, p.CreatedBy)
	if err != nil {
		return translateWriteError(p.Name, err)
	}
	return t.ReplaceChildren(ctx, p, Collections)
}

func (t *txRepo) UpdateProfile(ctx context.Context, p Profile) error {
	tag, err := t.tx.Exec(ctx, `UPDATE pos_profiles SET company = $2, currency = $3, warehouse = $4, customer = NULLIF($5, ''),
		selling_price_list = $6, write_off_account = $7, write_off_cost_center = $8, write_off_limit = $9,
		apply_discount_on = $10, cash_mode_of_payment = $11, taxes_and_charges = $12, disabled = $13,
		print_receipt_on_order_complete = $14, print_format = $15, letter_head = $16, updated_at = NOW()
		WHERE name = $1`,
		p.Name, p.Company, p.Currency, p.Warehouse, p.Customer, p.SellingPriceList,
		p.WriteOffAccount, p.WriteOffCostCenter, p.WriteOffLimit, p.ApplyDiscountOn, p.CashModeOfPayment,
		p.TaxesAndCharges, p.Disabled, p.PrintReceiptOnOrderComplete, p.PrintFormat, p.LetterHead)
	if err != nil {
		return translateWriteError(p.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: POS profile %s not found", httpx.ErrNotFound, p.Name)
	}
	return nil
}

// ReplaceChildren deletes and rewrites the listed collections of p, numbering rows from 1.
func (t *txRepo) ReplaceChildren(ctx context.Context, p Profile, cols []Collection) error {
	for _, col := range cols {
		var err error
		switch col {
		case CollectionPayments:
			err = t.replace(ctx, `pos_profile_payments`, p.Name, len(p.Payments), func(i int) (string, []any) {
				pm := p.Payments[i]
				return `INSERT INTO pos_profile_payments (profile, idx, mode_of_payment, is_default, allow_in_returns) VALUES ($1, $2, $3, $4, $5)`,
					[]any{pm.ModeOfPayment, pm.Default, pm.AllowInReturns}
			})
		case CollectionUsers:
			err = t.replace(ctx, `pos_profile_users`, p.Name, len(p.ApplicableForUsers), func(i int) (string, []any) {
				u := p.ApplicableForUsers[i]
				return `INSERT INTO pos_profile_users (profile, idx, user_email, is_default) VALUES ($1, $2, $3, $4)`,
					[]any{u.User, u.Default}
			})
		case CollectionItemGroups:
			err = t.replace(ctx, `pos_profile_item_groups`, p.Name, len(p.ItemGroups), func(i int) (string, []any) {
				return `INSERT INTO pos_profile_item_groups (profile, idx, item_group) VALUES ($1, $2, $3)`,
					[]any{p.ItemGroups[i].ItemGroup}
			})
		case CollectionCustomerGroups:
			err = t.replace(ctx, `pos_profile_customer_groups`, p.Name, len(p.CustomerGroups), func(i int) (string, []any) {
				return `INSERT INTO pos_profile_customer_groups (profile, idx, customer_group) VALUES ($1, $2, $3)`,
					[]any{p.CustomerGroups[i].CustomerGroup}
			})
		}
		if err != nil {
			return fmt.Errorf("replace %s: %w", col, err)
		}
	}
	return nil
}

func (t *txRepo) replace(ctx context.Context, table, profile string, n int, row func(int) (string, []any)) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM `+table+` WHERE profile = $1`, profile); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for i := 0; i < n; i++ {
		query, args := row(i)
		batch.Queue(query, append([]any{profile, i + 1}, args...)...)
	}
	if batch.Len() == 0 {
		return nil
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *txRepo) SetWarehouse(ctx context.Context, name, warehouse string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE pos_profiles SET warehouse = $2, updated_at = NOW() WHERE name = $1`, name, warehouse)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: POS profile %s not found", httpx.ErrNotFound, name)
	}
	return nil
}

func (t *txRepo) DeleteProfile(ctx context.Context, name string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM pos_profiles WHERE name = $1`, name)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: POS profile %s is still referenced", httpx.ErrValidation, name)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: POS profile %s not found", httpx.ErrNotFound, name)
	}
	return nil
}

func translateWriteError(name string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: POS profile %s already exists", httpx.ErrDuplicate, name)
	case db.IsForeignKeyViolation(err):
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return fmt.Errorf("%w: unknown reference in %s", httpx.ErrValidation, pgErr.ConstraintName)
	}
	return err
}

func loadProfile(ctx context.Context, q querier, query, name string) (Profile, error) {
	var p Profile
	err := q.QueryRow(ctx, query, name).Scan(&p.Name, &p.Company, &p.Currency, &p.Warehouse, &p.Customer,
		&p.SellingPriceList, &p.WriteOffAccount, &p.WriteOffCostCenter, &p.WriteOffLimit, &p.ApplyDiscountOn,
		&p.CashModeOfPayment, &p.TaxesAndCharges, &p.Disabled, &p.PrintReceiptOnOrderComplete,
		&p.PrintFormat, &p.LetterHead, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("%w: POS profile %s not found", httpx.ErrNotFound, name)
		}
		return Profile{}, err
	}
	if p.Payments, err = listPayments(ctx, q, name); err != nil {
		return Profile{}, err
	}
	if p.ApplicableForUsers, err = listUsers(ctx, q, name); err != nil {
		return Profile{}, err
	}
	groups, err := listStrings(ctx, q, `SELECT item_group FROM pos_profile_item_groups WHERE profile = $1 ORDER BY idx`, name)
	if err != nil {
		return Profile{}, err
	}
	p.ItemGroups = make([]ItemGroupFilter, 0, len(groups))
	for _, g := range groups {
		p.ItemGroups = append(p.ItemGroups, ItemGroupFilter{ItemGroup: g})
	}
	groups, err = listStrings(ctx, q, `SELECT customer_group FROM pos_profile_customer_groups WHERE profile = $1 ORDER BY idx`, name)
	if err != nil {
		return Profile{}, err
	}
	p.CustomerGroups = make([]CustomerGroupFilter, 0, len(groups))
	for _, g := range groups {
		p.CustomerGroups = append(p.CustomerGroups, CustomerGroupFilter{CustomerGroup: g})
	}
	return p, nil
}

func listPayments(ctx context.Context, q querier, profile string) ([]PaymentMethod, error) {
	rows, err := q.Query(ctx, `SELECT pp.mode_of_payment, pp.is_default, pp.allow_in_returns, COALESCE(NULLIF(m.type, ''), 'Cash')
		FROM pos_profile_payments pp
		LEFT JOIN modes_of_payment m ON m.name = pp.mode_of_payment
		WHERE pp.profile = $1 ORDER BY pp.idx`, profile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []PaymentMethod{}
	for rows.Next() {
		var pm PaymentMethod
		if err := rows.Scan(&pm.ModeOfPayment, &pm.Default, &pm.AllowInReturns, &pm.Type); err != nil {
			return nil, err
		}
		list = append(list, pm)
	}
	return list, rows.Err()
}

func listUsers(ctx context.Context, q querier, profile string) ([]UserAssignment, error) {
	rows, err := q.Query(ctx, `SELECT user_email, is_default FROM pos_profile_users WHERE profile = $1 ORDER BY idx`, profile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []UserAssignment{}
	for rows.Next() {
		var u UserAssignment
		if err := rows.Scan(&u.User, &u.Default); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func listStrings(ctx context.Context, q querier, query, profile string) ([]string, error) {
	rows, err := q.Query(ctx, query, profile)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
