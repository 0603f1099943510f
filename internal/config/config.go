package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"citabot/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig        `yaml:"app"`
	API          APIConfig        `yaml:"api"`
	Redis        RedisConfig      `yaml:"redis"`
	Monitoring   MonitoringConfig `yaml:"monitoring"`
	Logging      LoggingConfig    `yaml:"logging"`
	Clinic       ClinicConfig     `yaml:"clinic"`
	Simulation   SimulationConfig `yaml:"simulation"`
	SeedBookings []models.Booking `yaml:"seed_bookings"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ClinicConfig struct {
	Name     string   `yaml:"name"`
	Timezone string   `yaml:"timezone"`
	Slots    []string `yaml:"time_slots"`
	// Today pins the demo clock to a fixed day (YYYY-MM-DD). Empty means
	// the wall clock.
	Today          string `yaml:"today"`
	SelectedDate   string `yaml:"selected_date"`
	DisplayedMonth string `yaml:"displayed_month"` // YYYY-MM
}

type SimulationConfig struct {
	TurnInterval      time.Duration `yaml:"turn_interval"`
	PaymentDeadline   time.Duration `yaml:"payment_deadline"`
	AckDelay          time.Duration `yaml:"ack_delay"`
	ConfirmationDelay time.Duration `yaml:"confirmation_delay"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.API.HTTP.Port <= 0 || c.API.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.API.HTTP.Port)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid clinic timezone %q: %w", c.Clinic.Timezone, err)
	}

	if err := ValidateSlots(c.Clinic.Slots); err != nil {
		return err
	}

	if c.Clinic.Today != "" {
		if _, err := time.Parse(models.DateLayout, c.Clinic.Today); err != nil {
			return fmt.Errorf("invalid clinic.today %q", c.Clinic.Today)
		}
	}
	if _, err := time.Parse(models.DateLayout, c.Clinic.SelectedDate); err != nil {
		return fmt.Errorf("invalid clinic.selected_date %q", c.Clinic.SelectedDate)
	}
	if _, err := time.Parse("2006-01", c.Clinic.DisplayedMonth); err != nil {
		return fmt.Errorf("invalid clinic.displayed_month %q", c.Clinic.DisplayedMonth)
	}

	sim := c.Simulation
	if sim.TurnInterval <= 0 || sim.PaymentDeadline <= 0 || sim.AckDelay < 0 || sim.ConfirmationDelay < 0 {
		return errors.New("simulation durations must be positive")
	}

	return ValidateBookings(c.SeedBookings)
}

func ValidateSlots(slots []string) error {
	if len(slots) == 0 {
		return errors.New("clinic.time_slots must not be empty")
	}
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		if !models.ValidSlot(s) {
			return fmt.Errorf("invalid time slot %q", s)
		}
		if seen[s] {
			return fmt.Errorf("duplicate time slot %q", s)
		}
		seen[s] = true
	}
	return nil
}

func ValidateBookings(bookings []models.Booking) error {
	ids := make(map[int64]bool)
	for _, b := range bookings {
		if b.ID == 0 {
			return fmt.Errorf("booking for '%s' has invalid ID 0", b.Client)
		}
		if ids[b.ID] {
			return fmt.Errorf("duplicate booking ID found: %d", b.ID)
		}
		ids[b.ID] = true

		if _, err := time.Parse(models.DateLayout, b.Date); err != nil {
			return fmt.Errorf("booking %d has invalid date %q", b.ID, b.Date)
		}
		if !models.ValidSlot(b.Time) {
			return fmt.Errorf("booking %d has invalid time %q", b.ID, b.Time)
		}
		if !b.Status.Valid() {
			return fmt.Errorf("booking %d has invalid status %q", b.ID, b.Status)
		}
	}
	return nil
}

// Location resolves the clinic timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Clinic.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Clinic.Timezone)
}

// Clock returns the demo clock: a fixed instant when clinic.today is set,
// the wall clock otherwise.
func (c *Config) Clock() func() time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	if c.Clinic.Today == "" {
		return func() time.Time { return time.Now().In(loc) }
	}
	day, err := time.ParseInLocation(models.DateLayout, c.Clinic.Today, loc)
	if err != nil {
		return func() time.Time { return time.Now().In(loc) }
	}
	pinned := day.Add(10 * time.Hour)
	return func() time.Time { return pinned }
}

// DisplayedMonth returns the month the calendar opens on.
func (c *Config) DisplayedMonth() (int, time.Month) {
	t, err := time.Parse("2006-01", c.Clinic.DisplayedMonth)
	if err != nil {
		now := c.Clock()()
		return now.Year(), now.Month()
	}
	return t.Year(), t.Month()
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "citabot"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}

	// Clinic defaults
	if c.Clinic.Name == "" {
		c.Clinic.Name = "Clínica Dental Sonrisas"
	}
	if len(c.Clinic.Slots) == 0 {
		c.Clinic.Slots = append([]string(nil), models.DefaultTimeSlots...)
	}
	if c.Clinic.SelectedDate == "" {
		c.Clinic.SelectedDate = "2025-11-25"
	}
	if c.Clinic.DisplayedMonth == "" && len(c.Clinic.SelectedDate) >= 7 {
		c.Clinic.DisplayedMonth = c.Clinic.SelectedDate[:7]
	}

	// Simulation defaults
	if c.Simulation.TurnInterval == 0 {
		c.Simulation.TurnInterval = models.DefaultTurnIntervalMS * time.Millisecond
	}
	if c.Simulation.PaymentDeadline == 0 {
		c.Simulation.PaymentDeadline = models.DefaultPaymentDeadlineSeconds * time.Second
	}
	if c.Simulation.AckDelay == 0 {
		c.Simulation.AckDelay = models.DefaultAckDelayMS * time.Millisecond
	}
	if c.Simulation.ConfirmationDelay == 0 {
		c.Simulation.ConfirmationDelay = models.DefaultConfirmationDelayMS * time.Millisecond
	}

	if len(c.SeedBookings) == 0 {
		c.SeedBookings = models.DefaultSeedBookings()
	}
}
