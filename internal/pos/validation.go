package pos

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// scalarFields are the top-level profile keys a client may write.
var scalarFields = map[string]bool{
	"name":                            true,
	"company":                         true,
	"currency":                        true,
	"warehouse":                       true,
	"customer":                        true,
	"selling_price_list":              true,
	"write_off_account":               true,
	"write_off_cost_center":           true,
	"write_off_limit":                 true,
	"apply_discount_on":               true,
	"posa_cash_mode_of_payment":       true,
	"taxes_and_charges":               true,
	"disabled":                        true,
	"print_receipt_on_order_complete": true,
	"print_format":                    true,
	"letter_head":                     true,
}

var flagFields = []string{"disabled", "print_receipt_on_order_complete"}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// applyScalars overlays the supplied scalar fields onto p. Unknown keys are rejected.
func applyScalars(fields map[string]json.RawMessage, p *Profile) error {
	for key := range fields {
		if !scalarFields[key] {
			return fmt.Errorf("%w: unknown field '%s'", httpx.ErrValidation, key)
		}
	}
	normalized := make(map[string]json.RawMessage, len(fields))
	for key, raw := range fields {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		normalized[key] = raw
	}
	for _, key := range flagFields {
		if raw, ok := normalized[key]; ok {
			flag := StructuredEntry{key: raw}.Flag(key, false)
			normalized[key] = json.RawMessage(strconv.FormatBool(flag))
		}
	}
	if raw, ok := normalized["write_off_limit"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			s = strings.TrimSpace(s)
			if s == "" {
				s = "0"
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: invalid value for 'write_off_limit'", httpx.ErrValidation)
			}
			normalized["write_off_limit"] = json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("%w: malformed field value", httpx.ErrValidation)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: invalid value for '%s'", httpx.ErrValidation, typeErr.Field)
		}
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	trimProfile(p)
	return nil
}

func trimProfile(p *Profile) {
	for _, s := range []*string{&p.Name, &p.Company, &p.Currency, &p.Warehouse, &p.Customer, &p.SellingPriceList,
		&p.WriteOffAccount, &p.WriteOffCostCenter, &p.ApplyDiscountOn, &p.CashModeOfPayment, &p.TaxesAndCharges,
		&p.PrintFormat, &p.LetterHead} {
		*s = strings.TrimSpace(*s)
	}
}

// validateProfile checks the scalar fields and collection rules of p.
func validateProfile(v *validator.Validate, p *Profile) error {
	if err := v.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			if fe.Tag() == "required" {
				return fmt.Errorf("%w: %s is required", httpx.ErrValidation, fe.Field())
			}
			return fmt.Errorf("%w: %s is invalid", httpx.ErrValidation, fe.Field())
		}
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	unit, err := currency.ParseISO(strings.ToUpper(p.Currency))
	if err != nil {
		return fmt.Errorf("%w: currency '%s' is not a valid ISO 4217 code", httpx.ErrValidation, p.Currency)
	}
	p.Currency = unit.String()
	switch p.ApplyDiscountOn {
	case "":
		p.ApplyDiscountOn = ApplyOnGrandTotal
	case ApplyOnGrandTotal, ApplyOnNetTotal:
	default:
		return fmt.Errorf("%w: apply_discount_on must be '%s' or '%s'", httpx.ErrValidation, ApplyOnGrandTotal, ApplyOnNetTotal)
	}
	defaults := 0
	for _, pm := range p.Payments {
		if pm.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%w: only one mode of payment can be default", httpx.ErrValidation)
	}
	return nil
}
