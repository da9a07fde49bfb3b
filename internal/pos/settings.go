package pos

// Settings are the station toggles stored per profile.
type Settings struct {
	TaxInclusive                      int     `json:"tax_inclusive"`
	AllowUserToEditAdditionalDiscount int     `json:"allow_user_to_edit_additional_discount"`
	AllowUserToEditItemDiscount       int     `json:"allow_user_to_edit_item_discount"`
	UsePercentageDiscount             int     `json:"use_percentage_discount"`
	MaxDiscountAllowed                float64 `json:"max_discount_allowed"`
	DisableRoundedTotal               int     `json:"disable_rounded_total"`
	AllowCreditSale                   int     `json:"allow_credit_sale"`
	AllowReturn                       int     `json:"allow_return"`
	AllowWriteOffChange               int     `json:"allow_write_off_change"`
	AllowPartialPayment               int     `json:"allow_partial_payment"`
	DecimalPrecision                  string  `json:"decimal_precision"`
	AllowNegativeStock                int     `json:"allow_negative_stock"`
	EnableSalesPersons                string  `json:"enable_sales_persons"`
}

// DefaultSettings is returned when a profile has no enabled settings row.
func DefaultSettings() Settings {
	return Settings{
		AllowUserToEditItemDiscount: 1,
		DisableRoundedTotal:         1,
		DecimalPrecision:            "2",
		EnableSalesPersons:          "Disabled",
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
