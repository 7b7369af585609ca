package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. It is loaded once at process start
// and handed to constructors; business logic never reads the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Calendar
	CalendarBackend       string
	CalendarID            string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	CalendarTimeout       time.Duration

	// Working window
	WorkStartHour   int
	WorkEndHour     int
	SlotDuration    time.Duration
	Timezone        string
	ClosedWeekdays  []time.Weekday
	RejectPastDates bool

	// Email
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	OperatorEmail     string
	NotifyTimeout     time.Duration

	// AWS (SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis slot guard
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	BookingGuard   bool
	BookingLockTTL time.Duration

	// HTTP
	CORSAllowedOrigins   []string
	BookingRatePerMinute int
	BookingRateBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CalendarBackend:       strings.ToLower(strings.TrimSpace(getEnv("CALENDAR_BACKEND", "google"))),
		CalendarID:            getEnv("CALENDAR_ID", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "./service-account.json")),
		CalendarTimeout:       getEnvAsDuration("CALENDAR_TIMEOUT", 5*time.Second),

		WorkStartHour:   getEnvAsInt("WORK_START_HOUR", 9),
		WorkEndHour:     getEnvAsInt("WORK_END_HOUR", 18),
		SlotDuration:    getEnvAsDuration("SLOT_DURATION", 60*time.Minute),
		Timezone:        getEnv("TIMEZONE", "America/Santiago"),
		ClosedWeekdays:  getEnvAsWeekdays("CLOSED_WEEKDAYS", []time.Weekday{time.Sunday}),
		RejectPastDates: getEnvAsBool("REJECT_PAST_DATES", true),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Kinesiología a Domicilio"),
		OperatorEmail:     getEnv("OPERATOR_EMAIL", ""),
		NotifyTimeout:     getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		BookingGuard:   getEnvAsBool("BOOKING_GUARD", false),
		BookingLockTTL: getEnvAsDuration("BOOKING_LOCK_TTL", 30*time.Second),

		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS"),
		BookingRatePerMinute: getEnvAsInt("BOOKING_RATE_PER_MINUTE", 10),
		BookingRateBurst:     getEnvAsInt("BOOKING_RATE_BURST", 5),
	}
}

// Validate reports settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.WorkStartHour < 0 || c.WorkEndHour > 24 || c.WorkStartHour >= c.WorkEndHour {
		errs = append(errs, fmt.Errorf("config: invalid working window %d-%d", c.WorkStartHour, c.WorkEndHour))
	}
	if c.SlotDuration <= 0 || c.SlotDuration%time.Hour != 0 {
		errs = append(errs, fmt.Errorf("config: invalid slot duration %s", c.SlotDuration))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err))
	}
	switch c.CalendarBackend {
	case "google":
		if strings.TrimSpace(c.CalendarID) == "" {
			errs = append(errs, errors.New("config: CALENDAR_ID is required for the google backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("config: unknown calendar backend %q", c.CalendarBackend))
	}
	switch c.EmailProvider {
	case "auto", "sendgrid", "ses", "stub":
	default:
		errs = append(errs, fmt.Errorf("config: unknown email provider %q", c.EmailProvider))
	}
	return errors.Join(errs...)
}

// Location returns the configured practice timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// getEnvAsWeekdays parses a comma list of weekday names. "none" clears the
// list; unknown names are skipped.
func getEnvAsWeekdays(key string, defaultValue []time.Weekday) []time.Weekday {
	raw := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if raw == "" {
		return defaultValue
	}
	if raw == "none" {
		return nil
	}
	var out []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		if day, ok := weekdayNames[strings.TrimSpace(part)]; ok {
			out = append(out, day)
		}
	}
	return out
}
