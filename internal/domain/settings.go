package domain

// Theme values accepted in UserSettings.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Profile visibility values accepted in PrivacySettings.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityFriends = "friends"
)

// NotificationSettings holds per-channel notification preferences.
type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// PrivacySettings holds profile privacy preferences.
type PrivacySettings struct {
	ProfileVisibility string `json:"profile_visibility"`
	ShowEmail         bool   `json:"show_email"`
	ShowOnline        bool   `json:"show_online"`
}

// UserSettings is stored as a JSON document alongside the user row.
type UserSettings struct {
	Theme         string               `json:"theme"`
	Language      string               `json:"language"`
	Timezone      string               `json:"timezone"`
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
}

// DefaultUserSettings returns the settings a new account starts with.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Theme:         ThemeAuto,
		Language:      "en",
		Timezone:      "UTC",
		Notifications: NotificationSettings{Email: true},
		Privacy: PrivacySettings{
			ProfileVisibility: VisibilityPublic,
			ShowOnline:        true,
		},
	}
}
