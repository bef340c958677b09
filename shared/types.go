package shared

import "fmt"

const (
	FIRESTORE_STORE = "firestore"
	SQLITE_STORE    = "sqlite"
	MEMORY_STORE    = "memory"
)

type ServerConfig struct {
	Haven    HavenConfig    `mapstructure:"haven" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Google   GoogleConfig   `mapstructure:"google"`
}

type HavenConfig struct {
	Listener ListenerConfig `mapstructure:"listener" validate:"required"`
	Cors     CorsConfig     `mapstructure:"cors"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Cron     CronConfig     `mapstructure:"cron"`
}

type ListenerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type AlertsConfig struct {
	SmsConcurrency int `mapstructure:"smsConcurrency" validate:"min=0"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=firestore sqlite memory"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase"`
	RootDir    string `mapstructure:"rootDir"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	PhoneNumber         string `mapstructure:"phoneNumber"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
	Dev                 bool   `mapstructure:"dev"`
}

type FirebaseConfig struct {
	ServiceAccountJSON string `mapstructure:"serviceAccountJson"`
	CredentialsFile    string `mapstructure:"credentialsFile"`
	ProjectID          string `mapstructure:"projectId"`
	VerifyIDTokens     bool   `mapstructure:"verifyIdTokens"`
	Dev                bool   `mapstructure:"dev"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Bucket                    string `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string `mapstructure:"prefix" validate:"required_with=EnableSqliteBackupAndSync"`
	SqliteBackupSchedule      string `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync bool   `mapstructure:"enableSqliteBackupAndSync"`
}

// CheckDependencies reports settings that are only required in combination
// with other settings, e.g. twilio credentials when sms isn't stubbed out.
func (config *ServerConfig) CheckDependencies() []string {
	errs := []string{}

	if config.Store.Driver == SQLITE_STORE && config.Sqlite.PassPhrase == "" {
		errs = append(errs, "sqlite.passPhrase is required when store.driver is 'sqlite'")
	}

	if !config.Twilio.Dev {
		credentials := [][2]string{
			{"twilio.accountSid", config.Twilio.AccountSid},
			{"twilio.authToken", config.Twilio.AuthToken},
		}
		for _, credential := range credentials {
			if credential[1] == "" {
				errs = append(errs, fmt.Sprintf("%s is required unless twilio.dev is set", credential[0]))
			}
		}

		if config.Twilio.PhoneNumber == "" && config.Twilio.MessagingServiceSid == "" {
			errs = append(errs, "one of twilio.phoneNumber or twilio.messagingServiceSid is required unless twilio.dev is set")
		}
	}

	if config.Google.Storage.EnableSqliteBackupAndSync && config.Store.Driver != SQLITE_STORE {
		errs = append(errs, "google.storage.enableSqliteBackupAndSync only applies to the 'sqlite' store")
	}

	return errs
}

// NeedsFirebase reports whether any configured component talks to firebase.
func (config *ServerConfig) NeedsFirebase() bool {
	return config.Store.Driver == FIRESTORE_STORE || !config.Firebase.Dev || config.Firebase.VerifyIDTokens
}
