package shared

// POS permissions.
const (
	PermPOSProfilesView   = "pos_profiles.view"
	PermPOSProfilesCreate = "pos_profiles.create"
	PermPOSProfilesEdit   = "pos_profiles.edit"
)

// POSScopes lists all permissions related to POS configuration.
func POSScopes() []string {
	return []string{
		PermPOSProfilesView,
		PermPOSProfilesCreate,
		PermPOSProfilesEdit,
	}
}
