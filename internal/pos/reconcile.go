package pos

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Collection names a child collection of a profile, as it appears in requests.
type Collection string

const (
	CollectionPayments       Collection = "payments"
	CollectionUsers          Collection = "applicable_for_users"
	CollectionItemGroups     Collection = "item_groups"
	CollectionCustomerGroups Collection = "customer_groups"
)

// Collections lists every child collection in a stable order.
var Collections = []Collection{CollectionPayments, CollectionUsers, CollectionItemGroups, CollectionCustomerGroups}

// childKeys names the identifier field of each collection's structured entries.
var childKeys = map[Collection]string{
	CollectionPayments:       "mode_of_payment",
	CollectionUsers:          "user",
	CollectionItemGroups:     "item_group",
	CollectionCustomerGroups: "customer_group",
}

const fallbackKey = "name"

// identify extracts the identifier of an entry. Structured entries are returned for flag lookups.
func identify(col Collection, e Entry) (string, StructuredEntry) {
	switch v := e.(type) {
	case IdentifierOnly:
		return strings.TrimSpace(string(v)), nil
	case StructuredEntry:
		id := v.String(childKeys[col])
		if id == "" {
			id = v.String(fallbackKey)
		}
		return id, v
	}
	return "", nil
}

// Children holds the collections supplied with a create or update request.
// A collection that was not supplied is left untouched by ApplyTo.
type Children struct {
	Payments           []PaymentMethod
	ApplicableForUsers []UserAssignment
	ItemGroups         []ItemGroupFilter
	CustomerGroups     []CustomerGroupFilter
	supplied           map[Collection]bool
}

// Has reports whether col was supplied.
func (c Children) Has(col Collection) bool {
	return c.supplied[col]
}

// Supplied lists the supplied collections in a stable order.
func (c Children) Supplied() []Collection {
	var out []Collection
	for _, col := range Collections {
		if c.supplied[col] {
			out = append(out, col)
		}
	}
	return out
}

// ExtractChildren removes the child-collection keys from fields and rebuilds each
// supplied collection. A key holding JSON null counts as not supplied.
func ExtractChildren(fields map[string]json.RawMessage) (Children, error) {
	children := Children{supplied: map[Collection]bool{}}
	for _, col := range Collections {
		raw, ok := fields[string(col)]
		if !ok {
			continue
		}
		delete(fields, string(col))
		if strings.TrimSpace(string(raw)) == "null" {
			continue
		}
		items, err := NormalizeList(string(col), raw)
		if err != nil {
			return Children{}, err
		}
		entries := make([]Entry, 0, len(items))
		for _, item := range items {
			if e, ok := ParseEntry(item); ok {
				entries = append(entries, e)
			}
		}
		children.set(col, entries)
	}
	return children, nil
}

func (c *Children) set(col Collection, entries []Entry) {
	c.supplied[col] = true
	switch col {
	case CollectionPayments:
		c.Payments = ReconcilePayments(entries)
	case CollectionUsers:
		c.ApplicableForUsers = ReconcileUsers(entries)
	case CollectionItemGroups:
		c.ItemGroups = ReconcileItemGroups(entries)
	case CollectionCustomerGroups:
		c.CustomerGroups = ReconcileCustomerGroups(entries)
	}
}

// ApplyTo replaces every supplied collection of p.
func (c Children) ApplyTo(p *Profile) {
	if c.Has(CollectionPayments) {
		p.Payments = c.Payments
	}
	if c.Has(CollectionUsers) {
		p.ApplicableForUsers = c.ApplicableForUsers
	}
	if c.Has(CollectionItemGroups) {
		p.ItemGroups = c.ItemGroups
	}
	if c.Has(CollectionCustomerGroups) {
		p.CustomerGroups = c.CustomerGroups
	}
}

// RequirePayments enforces the creation-time floor of one payment method.
func (c Children) RequirePayments() error {
	if len(c.Payments) == 0 {
		return fmt.Errorf("%w: at least one payment method is required", httpx.ErrValidation)
	}
	return nil
}

// ReconcilePayments builds the payments collection in input order.
func ReconcilePayments(entries []Entry) []PaymentMethod {
	out := make([]PaymentMethod, 0, len(entries))
	for _, e := range entries {
		id, fields := identify(CollectionPayments, e)
		if id == "" {
			continue
		}
		out = append(out, PaymentMethod{
			ModeOfPayment:  id,
			Default:        fields.Flag("default", false),
			AllowInReturns: fields.Flag("allow_in_returns", false),
		})
	}
	return out
}

// ReconcileUsers builds the user assignment collection in input order.
func ReconcileUsers(entries []Entry) []UserAssignment {
	out := make([]UserAssignment, 0, len(entries))
	for _, e := range entries {
		id, fields := identify(CollectionUsers, e)
		if id == "" {
			continue
		}
		out = append(out, UserAssignment{User: id, Default: fields.Flag("default", false)})
	}
	return out
}

// ReconcileItemGroups builds the item group filters in input order.
func ReconcileItemGroups(entries []Entry) []ItemGroupFilter {
	out := make([]ItemGroupFilter, 0, len(entries))
	for _, e := range entries {
		if id, _ := identify(CollectionItemGroups, e); id != "" {
			out = append(out, ItemGroupFilter{ItemGroup: id})
		}
	}
	return out
}

// ReconcileCustomerGroups builds the customer group filters in input order.
func ReconcileCustomerGroups(entries []Entry) []CustomerGroupFilter {
	out := make([]CustomerGroupFilter, 0, len(entries))
	for _, e := range entries {
		if id, _ := identify(CollectionCustomerGroups, e); id != "" {
			out = append(out, CustomerGroupFilter{CustomerGroup: id})
		}
	}
	return out
}
