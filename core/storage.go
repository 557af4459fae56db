package core

// KeyValueStore is the page's persistent storage. Writes are whole-value overwrites.
type KeyValueStore interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// Storage keys shared by the portal.
const (
	KeySchoolName     = "schoolName"
	KeySchoolTheme    = "schoolTheme"
	KeySchoolLogoPath = "schoolLogoPath"
	KeyUserRole       = "user_role"
	KeyUserName       = "user_name"
	KeySavedFormData  = "savedFormData"
)
