package config

import (
	"fmt"
	"strings"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/report"
	"github.com/spf13/viper"
)

// The services run as pods with their settings injected as environment variables.
// Every key has a default so a bare `go run` works against docker-compose.

type Config struct {
	IsLocalDev bool `mapstructure:"IS_LOCAL_DEV"`

	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBMigrate   bool   `mapstructure:"DB_MIGRATE"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	ServerPort         string  `mapstructure:"SERVER_PORT"`
	RateLimitPerSec    float64 `mapstructure:"RATE_LIMIT_PER_SEC"`
	RateLimitBurst     int     `mapstructure:"RATE_LIMIT_BURST"`
	RequestIPHeader    string  `mapstructure:"REQUEST_IP_HEADER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	WorkerConcurrency  int     `mapstructure:"WORKER_CONCURRENCY"`
	DirectoryFile      string  `mapstructure:"DIRECTORY_FILE"`
	DirectoryAPIURL    string  `mapstructure:"DIRECTORY_API_URL"`
	DirectoryCacheTTLS int     `mapstructure:"DIRECTORY_CACHE_TTL_SECONDS"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	PayrollSQSQueueURL string `mapstructure:"PAYROLL_SQS_QUEUE_URL"`
	EmailSQSQueueURL   string `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	EmailSender        string `mapstructure:"EMAIL_SENDER"`
	PayrollAPIURL      string `mapstructure:"PAYROLL_API_URL"`

	BusinessTimezone         string  `mapstructure:"BUSINESS_TIMEZONE"`
	ScheduleStart            string  `mapstructure:"SCHEDULE_START"`
	ScheduleEnd              string  `mapstructure:"SCHEDULE_END"`
	GraceMinutes             int     `mapstructure:"GRACE_MINUTES"`
	BreakMinutes             int     `mapstructure:"BREAK_MINUTES"`
	MaxOvertimeHours         float64 `mapstructure:"MAX_OVERTIME_HOURS"`
	OvertimeToleranceMinutes int     `mapstructure:"OVERTIME_TOLERANCE_MINUTES"`
	StatusPrecedence         string  `mapstructure:"STATUS_PRECEDENCE"`
	Workdays                 string  `mapstructure:"WORKDAYS"`
}

var defaults = map[string]any{
	"IS_LOCAL_DEV":                false,
	"DB_HOST":                     "db",
	"DB_PORT":                     "5432",
	"DB_USER":                     "user",
	"DB_PASSWORD":                 "password",
	"DB_NAME":                     "attendance_db",
	"DB_MIGRATE":                  true,
	"STORE_DRIVER":                "postgres",
	"SERVER_PORT":                 "8080",
	"RATE_LIMIT_PER_SEC":          10.0,
	"RATE_LIMIT_BURST":            20,
	"REQUEST_IP_HEADER":           "",
	"OTLP_ENDPOINT":               "jaeger:4317",
	"WORKER_CONCURRENCY":          10,
	"DIRECTORY_FILE":              "employees.yaml",
	"DIRECTORY_API_URL":           "",
	"DIRECTORY_CACHE_TTL_SECONDS": 300,
	"AWS_REGION":                  "us-east-1",
	"AWS_ENDPOINT":                "http://localstack:4566",
	"PAYROLL_SQS_QUEUE_URL":       "http://localstack:4566/000000000000/payroll-queue",
	"EMAIL_SQS_QUEUE_URL":         "http://localstack:4566/000000000000/email-queue",
	"EMAIL_SENDER":                "attendance@example.com",
	"PAYROLL_API_URL":             "http://localhost:8081/",
	"BUSINESS_TIMEZONE":           "UTC",
	"SCHEDULE_START":              "09:00",
	"SCHEDULE_END":                "17:00",
	"GRACE_MINUTES":               10,
	"BREAK_MINUTES":               60,
	"MAX_OVERTIME_HOURS":          4.0,
	"OVERTIME_TOLERANCE_MINUTES":  5,
	"STATUS_PRECEDENCE":           string(core.OvertimeFirst),
	"WORKDAYS":                    "mon,tue,wed,thu,fri",
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err = config.Schedule(); err != nil {
		return Config{}, err
	}
	if _, err = config.WorkdaySet(); err != nil {
		return Config{}, err
	}
	if config.DirectoryCacheTTLS < 0 {
		return Config{}, fmt.Errorf("DIRECTORY_CACHE_TTL_SECONDS must not be negative")
	}
	return config, nil
}

// Schedule builds the organization schedule from the settings.
func (c Config) Schedule() (core.Schedule, error) {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return core.Schedule{}, fmt.Errorf("invalid BUSINESS_TIMEZONE: %w", err)
	}
	start, err := core.ParseClock(c.ScheduleStart)
	if err != nil {
		return core.Schedule{}, fmt.Errorf("invalid SCHEDULE_START: %w", err)
	}
	end, err := core.ParseClock(c.ScheduleEnd)
	if err != nil {
		return core.Schedule{}, fmt.Errorf("invalid SCHEDULE_END: %w", err)
	}
	precedence, err := core.ParsePrecedence(c.StatusPrecedence)
	if err != nil {
		return core.Schedule{}, fmt.Errorf("invalid STATUS_PRECEDENCE: %w", err)
	}
	if c.GraceMinutes < 0 || c.BreakMinutes < 0 || c.OvertimeToleranceMinutes < 0 || c.MaxOvertimeHours < 0 {
		return core.Schedule{}, fmt.Errorf("schedule minutes and hours must not be negative")
	}

	return core.Schedule{
		Start:                    start,
		End:                      end,
		GraceMinutes:             c.GraceMinutes,
		BreakMinutes:             c.BreakMinutes,
		MaxOvertimeHours:         c.MaxOvertimeHours,
		OvertimeToleranceMinutes: c.OvertimeToleranceMinutes,
		Precedence:               precedence,
		Location:                 loc,
	}, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// WorkdaySet parses the comma separated WORKDAYS list, e.g. "mon,tue,wed".
func (c Config) WorkdaySet() (report.Workdays, error) {
	out := make(report.Workdays)
	for _, part := range strings.Split(c.Workdays, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		day, ok := weekdays[name]
		if !ok {
			return nil, fmt.Errorf("invalid WORKDAYS entry %q", part)
		}
		out[day] = true
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("WORKDAYS must name at least one day")
	}
	return out, nil
}

// DirectoryCacheTTL is how long HTTP directory lookups stay cached. Zero disables the cache.
func (c Config) DirectoryCacheTTL() time.Duration {
	return time.Duration(c.DirectoryCacheTTLS) * time.Second
}
