package constants

import "time"

// DrinkType represents the kind of beverage logged with an intake entry
type DrinkType string

// Units represents the display unit preference
type Units string

// Platform identifies the notification target whose delivery constraints apply
type Platform string

const (
	AppName            = "hydratemate"
	AppTitle           = "Hydrate Mate"
	DefaultKeyringUser = "database-connection"
	SessionKeyringUser = "auth-session"
	DefaultConfigDir   = "~/.config/hydratemate"
	DefaultConfigPath  = "~/.config/hydratemate/hydratemate.db"
	DefaultConfigFile  = "config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the day key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the clock format used for display (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "hydratemate-"

	// Notify constants
	NotifierLockfileName   = "hydratemate-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.hydratemate"
	TrayExecutablePrefix   = "hydratemate-tray"
	NotificationTitle      = "Hydrate Mate 💧"
	NotificationType       = "hydration-reminder"

	// Storage keys
	StateStorageKey       = "hydration-storage"
	OnboardingKey         = "onboardingCompleted"
	LegacyOnboardingKey   = "onboarding_completed"
	StateBackupKeyPattern = "hydration-storage.v%d.bak"

	// CurrentSchemaVersion is the version of the persisted state blob
	CurrentSchemaVersion = 2

	// Drink types
	DrinkWater       DrinkType = "Water"
	DrinkTea         DrinkType = "Tea"
	DrinkCoffee      DrinkType = "Coffee"
	DrinkJuice       DrinkType = "Juice"
	DrinkSportsDrink DrinkType = "Sports Drink"
	DrinkOther       DrinkType = "Other"

	// Units
	UnitsMl Units = "ml"
	UnitsOz Units = "oz"

	// Platforms
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformDesktop Platform = "desktop"

	// MlPerOz is the conversion factor between fluid ounces and millilitres
	MlPerOz = 29.5735
	// OzPerMl is the inverse conversion factor
	OzPerMl = 0.033814
)

// PlatformMinLead is the shortest lead time each platform delivers reliably.
// iOS drops date triggers closer than a minute; Android and the desktop
// dispatcher accept a one second lead.
var PlatformMinLead = map[Platform]time.Duration{
	PlatformIOS:     time.Minute,
	PlatformAndroid: time.Second,
	PlatformDesktop: time.Second,
}

// DrinkTypes lists every accepted drink type in display order
var DrinkTypes = []DrinkType{
	DrinkWater,
	DrinkTea,
	DrinkCoffee,
	DrinkJuice,
	DrinkSportsDrink,
	DrinkOther,
}
