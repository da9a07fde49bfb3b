package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

// Cache is the read-through cache used for slow-changing lookups.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// AuditRecorder stores an audit trail of profile mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// UserDirectory resolves user level facts needed by profile operations.
type UserDirectory interface {
	CompanyOf(ctx context.Context, actor shared.ActorContext) (string, error)
	ListActive(ctx context.Context) ([]users.User, error)
}

// Service implements the POS profile operations.
type Service struct {
	store    Store
	gate     *Gate
	users    UserDirectory
	cache    Cache
	audit    AuditRecorder
	validate *validator.Validate
	logger   *slog.Logger
}

// Option customises Service.
type Option func(*Service)

// WithCache enables read-through caching of settings, payment methods and taxes.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithAudit records mutations through rec.
func WithAudit(rec AuditRecorder) Option {
	return func(s *Service) { s.audit = rec }
}

// NewService constructs Service.
func NewService(store Store, gate *Gate, directory UserDirectory, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		gate:     gate,
		users:    directory,
		validate: newValidator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireProfileName(profile string) (string, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "", fmt.Errorf("%w: POS profile is required", httpx.ErrValidation)
	}
	return profile, nil
}

// ListProfiles returns the enabled profiles the actor is assigned to.
func (s *Service) ListProfiles(ctx context.Context, actor shared.ActorContext) ([]ProfileSummary, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.store.ListAssigned(ctx, actor.Email)
}

// ProfileData returns the full profile with its company, settings and print settings.
// Only assigned users may read it.
func (s *Service) ProfileData(ctx context.Context, actor shared.ActorContext, profile string) (ProfileData, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return ProfileData{}, err
	}
	profile, err := requireProfileName(profile)
	if err != nil {
		return ProfileData{}, err
	}
	if err := s.gate.RequireAccess(ctx, actor, profile); err != nil {
		return ProfileData{}, err
	}
	p, err := s.store.GetProfile(ctx, profile)
	if err != nil {
		return ProfileData{}, err
	}
	company, err := s.store.GetCompany(ctx, p.Company)
	if err != nil {
		return ProfileData{}, err
	}
	data := ProfileData{
		Profile: p,
		Company: company,
		PrintSettings: PrintSettings{
			AutoPrint:   boolInt(p.PrintReceiptOnOrderComplete),
			PrintFormat: p.PrintFormat,
			LetterHead:  p.LetterHead,
		},
	}
	settings, err := s.loadSettings(ctx, profile)
	if err != nil {
		s.logger.Warn("load pos settings", slog.String("profile", profile), slog.Any("error", err))
		data.Settings = struct{}{}
	} else {
		data.Settings = settings
	}
	return data, nil
}

// Settings returns the enabled settings of profile, or the defaults when none exist.
// A nil result means no profile was named.
func (s *Service) Settings(ctx context.Context, actor shared.ActorContext, profile string) (*Settings, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return nil, nil
	}
	settings, err := s.loadSettings(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

type storedSettings struct {
	Settings Settings `json:"settings"`
	Found    bool     `json:"found"`
}

func (s *Service) loadSettings(ctx context.Context, profile string) (Settings, error) {
	var stored storedSettings
	err := s.cached(ctx, &stored, func(ctx context.Context) (any, error) {
		settings, found, err := s.store.GetSettings(ctx, profile)
		return storedSettings{Settings: settings, Found: found}, err
	}, "pos", "settings", profile)
	if err != nil {
		return Settings{}, err
	}
	if !stored.Found {
		return DefaultSettings(), nil
	}
	return stored.Settings, nil
}

// PaymentMethods lists the payment rows of profile with their payment type.
func (s *Service) PaymentMethods(ctx context.Context, actor shared.ActorContext, profile string) ([]PaymentMethod, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	profile, err := requireProfileName(profile)
	if err != nil {
		return nil, err
	}
	var methods []PaymentMethod
	err = s.cached(ctx, &methods, func(ctx context.Context) (any, error) {
		return s.store.ListPaymentMethods(ctx, profile)
	}, "pos", "payments", profile)
	if err != nil {
		return nil, err
	}
	if methods == nil {
		methods = []PaymentMethod{}
	}
	return methods, nil
}

// Taxes lists the rows of the tax template configured on profile.
func (s *Service) Taxes(ctx context.Context, actor shared.ActorContext, profile string) ([]TaxRow, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return []TaxRow{}, nil
	}
	p, err := s.store.GetProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	if p.TaxesAndCharges == "" {
		return []TaxRow{}, nil
	}
	var rows []TaxRow
	err = s.cached(ctx, &rows, func(ctx context.Context) (any, error) {
		return s.store.ListTaxRows(ctx, p.TaxesAndCharges)
	}, "pos", "taxes", p.TaxesAndCharges)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []TaxRow{}
	}
	return rows, nil
}

// Warehouses lists the enabled leaf warehouses of the profile's company.
func (s *Service) Warehouses(ctx context.Context, actor shared.ActorContext, profile string) ([]WarehouseOption, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return []WarehouseOption{}, nil
	}
	p, err := s.store.GetProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.store.ListWarehouses(ctx, p.Company)
}

// DefaultCustomer returns the walk-in customer configured on profile.
func (s *Service) DefaultCustomer(ctx context.Context, actor shared.ActorContext, profile string) (DefaultCustomer, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return DefaultCustomer{}, err
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return DefaultCustomer{}, nil
	}
	p, err := s.store.GetProfile(ctx, profile)
	if err != nil {
		return DefaultCustomer{}, err
	}
	if p.Customer == "" {
		return DefaultCustomer{}, nil
	}
	c, err := s.store.GetCustomer(ctx, p.Customer)
	if err != nil {
		return DefaultCustomer{}, err
	}
	name := c.Name
	return DefaultCustomer{Customer: &name, CustomerName: c.CustomerName, CustomerGroup: c.CustomerGroup}, nil
}

// SalesPersons lists enabled individual sales persons, restricted to the
// profile's company when a known profile is given. An unknown profile
// applies no company filter.
func (s *Service) SalesPersons(ctx context.Context, actor shared.ActorContext, profile string) ([]SalesPerson, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	var company string
	if profile = strings.TrimSpace(profile); profile != "" {
		p, err := s.store.GetProfile(ctx, profile)
		switch {
		case errors.Is(err, httpx.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			company = p.Company
		}
	}
	return s.store.ListSalesPersons(ctx, company)
}

// UpdateWarehouse switches the warehouse of profile after checking that the
// warehouse is enabled and belongs to the profile's company.
func (s *Service) UpdateWarehouse(ctx context.Context, actor shared.ActorContext, profile, warehouse string) (UpdateWarehouseResult, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return UpdateWarehouseResult{}, err
	}
	profile, err := requireProfileName(profile)
	if err != nil {
		return UpdateWarehouseResult{}, err
	}
	warehouse = strings.TrimSpace(warehouse)
	if warehouse == "" {
		return UpdateWarehouseResult{}, fmt.Errorf("%w: warehouse is required", httpx.ErrValidation)
	}
	if err := s.gate.RequireMutate(ctx, actor, profile); err != nil {
		return UpdateWarehouseResult{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		p, err := tx.LockProfile(ctx, profile)
		if err != nil {
			return err
		}
		if err := s.checkWarehouse(ctx, warehouse, p.Company); err != nil {
			return err
		}
		return tx.SetWarehouse(ctx, profile, warehouse)
	})
	if err != nil {
		s.logger.Error("update warehouse", slog.String("profile", profile), slog.String("warehouse", warehouse), slog.Any("error", err))
		return UpdateWarehouseResult{}, err
	}
	s.afterMutation(ctx, actor, "pos_profile.update_warehouse", profile, map[string]any{"warehouse": warehouse})
	return UpdateWarehouseResult{Success: true, Message: "Warehouse updated successfully", Warehouse: warehouse}, nil
}

func (s *Service) checkWarehouse(ctx context.Context, warehouse, company string) error {
	w, err := s.store.GetWarehouse(ctx, warehouse)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return fmt.Errorf("%w: warehouse %s does not exist", httpx.ErrValidation, warehouse)
		}
		return err
	}
	if w.Disabled {
		return fmt.Errorf("%w: warehouse %s is disabled", httpx.ErrValidation, warehouse)
	}
	if w.Company != company {
		return fmt.Errorf("%w: warehouse %s belongs to %s, but POS profile belongs to %s", httpx.ErrValidation, warehouse, w.Company, company)
	}
	return nil
}

// CreateOptions lists the selectable values of the profile form.
func (s *Service) CreateOptions(ctx context.Context, actor shared.ActorContext) (CreateOptions, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return CreateOptions{}, err
	}
	opts, err := s.store.LoadOptions(ctx)
	if err != nil {
		return CreateOptions{}, err
	}
	active, err := s.users.ListActive(ctx)
	if err != nil {
		return CreateOptions{}, err
	}
	opts.ApplicableForUsers = make([]UserOption, 0, len(active))
	for _, u := range active {
		opts.ApplicableForUsers = append(opts.ApplicableForUsers, UserOption{Name: u.Email, FullName: u.Name})
	}
	return opts, nil
}

// CreateProfile inserts a profile for the actor's company. The name may be
// given as "name" or "__newname"; at least one payment method is required.
func (s *Service) CreateProfile(ctx context.Context, actor shared.ActorContext, fields map[string]json.RawMessage) (Profile, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return Profile{}, err
	}
	if raw, ok := fields["__newname"]; ok {
		if _, named := fields["name"]; !named {
			fields["name"] = raw
		}
		delete(fields, "__newname")
	}
	children, err := ExtractChildren(fields)
	if err != nil {
		return Profile{}, err
	}
	if err := children.RequirePayments(); err != nil {
		return Profile{}, err
	}
	company, err := s.users.CompanyOf(ctx, actor)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if err := applyScalars(fields, &p); err != nil {
		return Profile{}, err
	}
	p.Company = company
	p.CreatedBy = actor.Email
	children.ApplyTo(&p)
	if p.ApplicableForUsers == nil {
		p.ApplicableForUsers = []UserAssignment{}
	}
	if p.ItemGroups == nil {
		p.ItemGroups = []ItemGroupFilter{}
	}
	if p.CustomerGroups == nil {
		p.CustomerGroups = []CustomerGroupFilter{}
	}
	if err := validateProfile(s.validate, &p); err != nil {
		return Profile{}, err
	}
	if err := s.checkWarehouse(ctx, p.Warehouse, p.Company); err != nil {
		return Profile{}, err
	}

	var created Profile
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if err := tx.InsertProfile(ctx, p); err != nil {
			return err
		}
		created, err = tx.LockProfile(ctx, p.Name)
		return err
	})
	if err != nil {
		s.logger.Error("create pos profile", slog.String("profile", p.Name), slog.Any("error", err))
		return Profile{}, err
	}
	s.afterMutation(ctx, actor, "pos_profile.create", created.Name, map[string]any{"company": created.Company})
	return created, nil
}

// UpdateProfile applies a partial update: only supplied scalar fields change,
// and each supplied child collection replaces the stored one.
func (s *Service) UpdateProfile(ctx context.Context, actor shared.ActorContext, profile string, fields map[string]json.RawMessage) (Profile, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return Profile{}, err
	}
	profile, err := requireProfileName(profile)
	if err != nil {
		return Profile{}, err
	}
	if err := s.gate.RequireMutate(ctx, actor, profile); err != nil {
		return Profile{}, err
	}
	children, err := ExtractChildren(fields)
	if err != nil {
		return Profile{}, err
	}

	var updated Profile
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		p, err := tx.LockProfile(ctx, profile)
		if err != nil {
			return err
		}
		previousWarehouse, previousCompany := p.Warehouse, p.Company
		if err := applyScalars(fields, &p); err != nil {
			return err
		}
		if p.Name != profile {
			return fmt.Errorf("%w: POS profile name cannot be changed", httpx.ErrValidation)
		}
		children.ApplyTo(&p)
		if err := validateProfile(s.validate, &p); err != nil {
			return err
		}
		if p.Warehouse != previousWarehouse || p.Company != previousCompany {
			if err := s.checkWarehouse(ctx, p.Warehouse, p.Company); err != nil {
				return err
			}
		}
		if err := tx.UpdateProfile(ctx, p); err != nil {
			return err
		}
		if err := tx.ReplaceChildren(ctx, p, children.Supplied()); err != nil {
			return err
		}
		updated, err = tx.LockProfile(ctx, profile)
		return err
	})
	if err != nil {
		s.logger.Error("update pos profile", slog.String("profile", profile), slog.Any("error", err))
		return Profile{}, err
	}
	changed := make([]string, 0, len(fields))
	for key := range fields {
		changed = append(changed, key)
	}
	for _, col := range children.Supplied() {
		changed = append(changed, string(col))
	}
	s.afterMutation(ctx, actor, "pos_profile.update", profile, map[string]any{"fields": changed})
	return updated, nil
}

// DeleteProfile removes profile together with its child collections and settings.
func (s *Service) DeleteProfile(ctx context.Context, actor shared.ActorContext, profile string) error {
	if err := users.RequireAuthenticated(actor); err != nil {
		return err
	}
	profile, err := requireProfileName(profile)
	if err != nil {
		return err
	}
	if err := s.gate.RequireMutate(ctx, actor, profile); err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		return tx.DeleteProfile(ctx, profile)
	})
	if err != nil {
		s.logger.Error("delete pos profile", slog.String("profile", profile), slog.Any("error", err))
		return err
	}
	s.afterMutation(ctx, actor, "pos_profile.delete", profile, nil)
	return nil
}

func (s *Service) cached(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func (s *Service) afterMutation(ctx context.Context, actor shared.ActorContext, action, profile string, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("invalidate pos cache", slog.Any("error", err))
		}
	}
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "pos_profile",
		EntityID: profile,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("record audit log", slog.String("action", action), slog.Any("error", err))
	}
}
