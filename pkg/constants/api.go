package constants

// HTTP and context keys
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	ContentTypeJSON     = "application/json"
	ContextKeyUser      = "user"
	ContextKeyToken     = "token"
	ResponseError       = "error"
)

// Sort directions
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)

// Profiles
const (
	ProfileSystemAdmin  = "system_admin"
	ProfileStandardUser = "standard_user"
)

// IsSuperUser reports whether the profile bypasses admin-only checks.
func IsSuperUser(profileID string) bool {
	return profileID == ProfileSystemAdmin
}
