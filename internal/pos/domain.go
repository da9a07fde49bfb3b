package pos

import "time"

// Discount application targets accepted on a profile.
const (
	ApplyOnGrandTotal = "Grand Total"
	ApplyOnNetTotal   = "Net Total"
)

// PaymentMethod is one row of a profile's payments collection.
type PaymentMethod struct {
	ModeOfPayment  string `json:"mode_of_payment"`
	Default        bool   `json:"default"`
	AllowInReturns bool   `json:"allow_in_returns"`
	Type           string `json:"type,omitempty"`
}

// UserAssignment grants a user access to a profile.
type UserAssignment struct {
	User    string `json:"user"`
	Default bool   `json:"default"`
}

// ItemGroupFilter restricts the items offered at a station.
type ItemGroupFilter struct {
	ItemGroup string `json:"item_group"`
}

// CustomerGroupFilter restricts the customers offered at a station.
type CustomerGroupFilter struct {
	CustomerGroup string `json:"customer_group"`
}

// Profile is the configuration of one POS station.
type Profile struct {
	Name                        string                `json:"name" validate:"required,max=140"`
	Company                     string                `json:"company" validate:"required"`
	Currency                    string                `json:"currency" validate:"required"`
	Warehouse                   string                `json:"warehouse" validate:"required"`
	Customer                    string                `json:"customer"`
	SellingPriceList            string                `json:"selling_price_list"`
	WriteOffAccount             string                `json:"write_off_account" validate:"required"`
	WriteOffCostCenter          string                `json:"write_off_cost_center" validate:"required"`
	WriteOffLimit               float64               `json:"write_off_limit" validate:"gte=0"`
	ApplyDiscountOn             string                `json:"apply_discount_on"`
	CashModeOfPayment           string                `json:"posa_cash_mode_of_payment"`
	TaxesAndCharges             string                `json:"taxes_and_charges"`
	Disabled                    bool                  `json:"disabled"`
	PrintReceiptOnOrderComplete bool                  `json:"print_receipt_on_order_complete"`
	PrintFormat                 string                `json:"print_format"`
	LetterHead                  string                `json:"letter_head"`
	Payments                    []PaymentMethod       `json:"payments"`
	ApplicableForUsers          []UserAssignment      `json:"applicable_for_users"`
	ItemGroups                  []ItemGroupFilter     `json:"item_groups"`
	CustomerGroups              []CustomerGroupFilter `json:"customer_groups"`
	CreatedBy                   string                `json:"owner,omitempty"`
	CreatedAt                   time.Time             `json:"creation"`
	UpdatedAt                   time.Time             `json:"modified"`
}

// ProfileSummary is the list view of a profile.
type ProfileSummary struct {
	Name               string `json:"name"`
	Company            string `json:"company"`
	Currency           string `json:"currency"`
	Warehouse          string `json:"warehouse"`
	SellingPriceList   string `json:"selling_price_list"`
	WriteOffAccount    string `json:"write_off_account"`
	WriteOffCostCenter string `json:"write_off_cost_center"`
}

// Company is the owning company of a profile.
type Company struct {
	Name            string `json:"name"`
	Abbr            string `json:"abbr"`
	DefaultCurrency string `json:"default_currency"`
	Country         string `json:"country"`
	TaxID           string `json:"tax_id"`
}

// PrintSettings is the printing subset of a profile.
type PrintSettings struct {
	AutoPrint   int    `json:"auto_print"`
	PrintFormat string `json:"print_format"`
	LetterHead  string `json:"letter_head"`
}

// ProfileData bundles everything a station needs at start-up.
type ProfileData struct {
	Profile       Profile       `json:"pos_profile"`
	Company       Company       `json:"company"`
	Settings      any           `json:"pos_settings"`
	PrintSettings PrintSettings `json:"print_settings"`
}

// TaxRow is one line of a sales tax template.
type TaxRow struct {
	AccountHead         string  `json:"account_head"`
	ChargeType          string  `json:"charge_type"`
	Rate                float64 `json:"rate"`
	Description         string  `json:"description"`
	IncludedInPrintRate int     `json:"included_in_print_rate"`
	Idx                 int     `json:"idx"`
}

// Warehouse is a stock location.
type Warehouse struct {
	Name          string `json:"name"`
	WarehouseName string `json:"warehouse_name"`
	Company       string `json:"company"`
	Disabled      bool   `json:"disabled"`
	IsGroup       bool   `json:"is_group"`
}

// WarehouseOption is a selectable warehouse.
type WarehouseOption struct {
	Name          string `json:"name"`
	WarehouseName string `json:"warehouse_name"`
}

// Customer is the subset of a customer record used by the POS.
type Customer struct {
	Name          string `json:"name"`
	CustomerName  string `json:"customer_name"`
	CustomerGroup string `json:"customer_group"`
}

// DefaultCustomer is the response of the default customer lookup.
type DefaultCustomer struct {
	Customer      *string `json:"customer"`
	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerGroup string  `json:"customer_group,omitempty"`
}

// SalesPerson is an individual (non-group) sales person.
type SalesPerson struct {
	Name            string  `json:"name"`
	SalesPersonName string  `json:"sales_person_name"`
	CommissionRate  float64 `json:"commission_rate"`
	Employee        *string `json:"employee"`
}

// UpdateWarehouseResult is returned after switching a profile's warehouse.
type UpdateWarehouseResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Warehouse string `json:"warehouse"`
}

// NamedOption is a bare record reference.
type NamedOption struct {
	Name string `json:"name"`
}

// CurrencyOption is an enabled currency.
type CurrencyOption struct {
	Name         string `json:"name"`
	CurrencyName string `json:"currency_name"`
	Symbol       string `json:"symbol"`
}

// UserOption is an enabled user that can be assigned to a profile.
type UserOption struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// LabelledOption is a value with a display label.
type LabelledOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CreateOptions lists the selectable values of the profile form.
type CreateOptions struct {
	Warehouses             []NamedOption    `json:"warehouses"`
	Customers              []NamedOption    `json:"customers"`
	Currencies             []CurrencyOption `json:"currencies"`
	Payments               []NamedOption    `json:"payments"`
	WriteOffAccounts       []NamedOption    `json:"write_off_accounts"`
	WriteOffCostCenters    []NamedOption    `json:"write_off_cost_centers"`
	ApplicableForUsers     []UserOption     `json:"applicable_for_users"`
	CashModeOfPayment      []NamedOption    `json:"posa_cash_mode_of_payment"`
	ItemGroups             []NamedOption    `json:"item_groups"`
	CustomerGroups         []NamedOption    `json:"customer_groups"`
	ApplyDiscountOnOptions []LabelledOption `json:"apply_discount_on_options"`
}

func applyDiscountOptions() []LabelledOption {
	return []LabelledOption{
		{Value: ApplyOnGrandTotal, Label: ApplyOnGrandTotal},
		{Value: ApplyOnNetTotal, Label: ApplyOnNetTotal},
	}
}
