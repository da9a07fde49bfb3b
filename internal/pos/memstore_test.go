package pos

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

type salesPersonRow struct {
	SalesPerson
	company string
}

type memStore struct {
	mu           sync.Mutex
	profiles     map[string]Profile
	companies    map[string]Company
	settings     map[string]Settings
	taxRows      map[string][]TaxRow
	warehouses   map[string]Warehouse
	customers    map[string]Customer
	salesPersons []salesPersonRow
	readErr      error
	paymentReads int
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[string]Profile{},
		companies: map[string]Company{
			"Acme": {Name: "Acme", Abbr: "AC", DefaultCurrency: "MZN", Country: "Mozambique"},
		},
		settings: map[string]Settings{},
		taxRows: map[string][]TaxRow{
			"IVA 16%": {{AccountHead: "IVA - AC", ChargeType: "On Net Total", Rate: 16, Description: "IVA", Idx: 1}},
		},
		warehouses: map[string]Warehouse{
			"Stores - AC":  {Name: "Stores - AC", WarehouseName: "Stores", Company: "Acme"},
			"Shop - AC":    {Name: "Shop - AC", WarehouseName: "Shop", Company: "Acme"},
			"Old - AC":     {Name: "Old - AC", WarehouseName: "Old", Company: "Acme", Disabled: true},
			"Stores - OTH": {Name: "Stores - OTH", WarehouseName: "Stores", Company: "Other"},
		},
		customers: map[string]Customer{
			"Walk-in": {Name: "Walk-in", CustomerName: "Walk-in Customer", CustomerGroup: "Individual"},
		},
	}
}

func (m *memStore) seed(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Name] = p
}

func (m *memStore) IsAssigned(_ context.Context, profile, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profile]
	if !ok {
		return false, nil
	}
	for _, u := range p.ApplicableForUsers {
		if strings.EqualFold(u.User, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListAssigned(ctx context.Context, email string) ([]ProfileSummary, error) {
	m.mu.Lock()
	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	m.mu.Unlock()
	sort.Strings(names)
	out := []ProfileSummary{}
	for _, name := range names {
		ok, _ := m.IsAssigned(ctx, name, email)
		p := m.profiles[name]
		if !ok || p.Disabled {
			continue
		}
		out = append(out, ProfileSummary{Name: p.Name, Company: p.Company, Currency: p.Currency, Warehouse: p.Warehouse})
	}
	return out, nil
}

func (m *memStore) GetProfile(_ context.Context, name string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return Profile{}, m.readErr
	}
	p, ok := m.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: POS profile %s not found", httpx.ErrNotFound, name)
	}
	return p, nil
}

func (m *memStore) GetCompany(_ context.Context, name string) (Company, error) {
	c, ok := m.companies[name]
	if !ok {
		return Company{}, fmt.Errorf("%w: company %s", httpx.ErrNotFound, name)
	}
	return c, nil
}

func (m *memStore) GetSettings(_ context.Context, profile string) (Settings, bool, error) {
	if m.readErr != nil {
		return Settings{}, false, m.readErr
	}
	s, ok := m.settings[profile]
	return s, ok, nil
}

func (m *memStore) ListPaymentMethods(_ context.Context, profile string) ([]PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentReads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := []PaymentMethod{}
	for _, pm := range m.profiles[profile].Payments {
		pm.Type = "Cash"
		out = append(out, pm)
	}
	return out, nil
}

func (m *memStore) ListTaxRows(_ context.Context, template string) ([]TaxRow, error) {
	return m.taxRows[template], nil
}

func (m *memStore) ListWarehouses(_ context.Context, company string) ([]WarehouseOption, error) {
	out := []WarehouseOption{}
	for _, w := range m.warehouses {
		if w.Company == company && !w.Disabled && !w.IsGroup {
			out = append(out, WarehouseOption{Name: w.Name, WarehouseName: w.WarehouseName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseName < out[j].WarehouseName })
	return out, nil
}

func (m *memStore) GetWarehouse(_ context.Context, name string) (Warehouse, error) {
	w, ok := m.warehouses[name]
	if !ok {
		return Warehouse{}, fmt.Errorf("%w: warehouse %s not found", httpx.ErrNotFound, name)
	}
	return w, nil
}

func (m *memStore) GetCustomer(_ context.Context, name string) (Customer, error) {
	c, ok := m.customers[name]
	if !ok {
		return Customer{}, fmt.Errorf("%w: customer %s not found", httpx.ErrNotFound, name)
	}
	return c, nil
}

func (m *memStore) ListSalesPersons(_ context.Context, company string) ([]SalesPerson, error) {
	out := []SalesPerson{}
	for _, row := range m.salesPersons {
		if company == "" || row.company == company {
			out = append(out, row.SalesPerson)
		}
	}
	return out, nil
}

func (m *memStore) LoadOptions(context.Context) (CreateOptions, error) {
	return CreateOptions{
		Warehouses:             []NamedOption{{Name: "Shop - AC"}, {Name: "Stores - AC"}},
		Payments:               []NamedOption{{Name: "Cash"}, {Name: "M-Pesa"}},
		CashModeOfPayment:      []NamedOption{{Name: "Cash"}, {Name: "M-Pesa"}},
		ApplyDiscountOnOptions: applyDiscountOptions(),
	}, nil
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	m.mu.Lock()
	snapshot := make(map[string]Profile, len(m.profiles))
	for k, v := range m.profiles {
		snapshot[k] = v
	}
	m.mu.Unlock()
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.mu.Lock()
		m.profiles = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

type memTx struct {
	m *memStore
}

func (t *memTx) LockProfile(ctx context.Context, name string) (Profile, error) {
	return t.m.GetProfile(ctx, name)
}

func (t *memTx) InsertProfile(_ context.Context, p Profile) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.profiles[p.Name]; ok {
		return fmt.Errorf("%w: POS profile %s already exists", httpx.ErrDuplicate, p.Name)
	}
	t.m.profiles[p.Name] = p
	return nil
}

func (t *memTx) UpdateProfile(_ context.Context, p Profile) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	cur, ok := t.m.profiles[p.Name]
	if !ok {
		return fmt.Errorf("%w: POS profile %s not found", httpx.ErrNotFound, p.Name)
	}
	p.Payments, p.ApplicableForUsers = cur.Payments, cur.ApplicableForUsers
	p.ItemGroups, p.CustomerGroups = cur.ItemGroups, cur.CustomerGroups
	t.m.profiles[p.Name] = p
	return nil
}

func (t *memTx) ReplaceChildren(_ context.Context, p Profile, cols []Collection) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	cur := t.m.profiles[p.Name]
	for _, col := range cols {
		switch col {
		case CollectionPayments:
			cur.Payments = p.Payments
		case CollectionUsers:
			cur.ApplicableForUsers = p.ApplicableForUsers
		case CollectionItemGroups:
			cur.ItemGroups = p.ItemGroups
		case CollectionCustomerGroups:
			cur.CustomerGroups = p.CustomerGroups
		}
	}
	t.m.profiles[p.Name] = cur
	return nil
}

func (t *memTx) SetWarehouse(_ context.Context, name, warehouse string) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	p := t.m.profiles[name]
	p.Warehouse = warehouse
	t.m.profiles[name] = p
	return nil
}

func (t *memTx) DeleteProfile(_ context.Context, name string) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.profiles[name]; !ok {
		return fmt.Errorf("%w: POS profile %s not found", httpx.ErrNotFound, name)
	}
	delete(t.m.profiles, name)
	return nil
}

type memDirectory struct {
	companies map[string]string
	active    []users.User
}

func (d memDirectory) CompanyOf(_ context.Context, actor shared.ActorContext) (string, error) {
	company := d.companies[actor.Email]
	if company == "" {
		return "", fmt.Errorf("%w: user must have a company assigned", httpx.ErrValidation)
	}
	return company, nil
}

func (d memDirectory) ListActive(context.Context) ([]users.User, error) {
	return d.active, nil
}

type staticPermissions map[int64][]string

func (s staticPermissions) EffectivePermissions(_ context.Context, userID int64) ([]string, error) {
	return s[userID], nil
}

type recordedAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (r *recordedAudit) Record(_ context.Context, log shared.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

var (
	cashier  = shared.ActorContext{UserID: 1, Email: "cashier@acme.test", SessionID: "s1"}
	manager  = shared.ActorContext{UserID: 2, Email: "manager@acme.test", SessionID: "s2"}
	outsider = shared.ActorContext{UserID: 3, Email: "outsider@acme.test", SessionID: "s3"}
)

func mainStore() Profile {
	return Profile{
		Name:               "Main Store",
		Company:            "Acme",
		Currency:           "MZN",
		Warehouse:          "Stores - AC",
		Customer:           "Walk-in",
		WriteOffAccount:    "Write Off - AC",
		WriteOffCostCenter: "Main - AC",
		ApplyDiscountOn:    ApplyOnGrandTotal,
		TaxesAndCharges:    "IVA 16%",
		Payments:           []PaymentMethod{{ModeOfPayment: "Cash", Default: true}},
		ApplicableForUsers: []UserAssignment{{User: cashier.Email, Default: true}},
		ItemGroups:         []ItemGroupFilter{{ItemGroup: "Beverages"}},
		CustomerGroups:     []CustomerGroupFilter{},
	}
}
