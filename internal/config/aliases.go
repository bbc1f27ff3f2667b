package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AliasConfig maps export column synonyms to canonical record fields and
// carries the accepted date layouts. Matching against column headers is
// case- and whitespace-insensitive; within a field the first alias with a
// non-blank value wins.
type AliasConfig struct {
	FullName      []string `mapstructure:"full_name"`
	FirstName     []string `mapstructure:"first_name"`
	LastName      []string `mapstructure:"last_name"`
	Email         []string `mapstructure:"email"`
	Phone         []string `mapstructure:"phone"`
	EventName     []string `mapstructure:"event_name"`
	ActivityType  []string `mapstructure:"activity_type"`
	ActivityDate  []string `mapstructure:"activity_date"`
	PaymentStatus []string `mapstructure:"payment_status"`
	Amount        []string `mapstructure:"amount"`

	DateFormats []string `mapstructure:"date_formats"`
}

func DefaultAliasConfig() AliasConfig {
	return AliasConfig{
		FullName:      []string{"full_name", "Full Name", "Name", "Supporter Name"},
		FirstName:     []string{"first_name", "First Name", "First", "Fname", "Supporter First Name"},
		LastName:      []string{"last_name", "Last Name", "Last", "Lname", "Supporter Last Name"},
		Email:         []string{"email", "Email", "Email Address", "Supporter Email"},
		Phone:         []string{"phone", "Phone", "Phone Number", "Mobile", "Supporter Phone"},
		EventName:     []string{"event_name", "Event Name"},
		ActivityType:  []string{"activity_type", "Activity Type"},
		ActivityDate:  []string{"activity_date", "Activity Date", "Event Date", "Payment Date"},
		PaymentStatus: []string{"payment_status", "Payment Status", "Status"},
		Amount:        []string{"proceeds_amount", "Proceeds Amount", "Amount", "Total"},
		DateFormats: []string{
			"2006-01-02",
			"2006/01/02",
			"01/02/2006",
			"1/2/2006",
			"Jan 2, 2006",
			"January 2, 2006",
			"2 Jan 2006",
			"2006-01-02T15:04:05Z07:00",
			"2006-01-02 15:04:05",
		},
	}
}

type AliasConfigHolder struct {
	current atomic.Value // holds AliasConfig
}

func NewAliasConfigHolder(cfg Config) (*AliasConfigHolder, error) {
	v := viper.New()

	if cfg.AliasesFile != "" {
		v.SetConfigFile(cfg.AliasesFile)
	} else {
		v.SetConfigName("aliases")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/rollcall")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ROLLCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfg.AliasesFile != "" {
			return nil, err
		}
		defaults := DefaultAliasConfig()
		v.SetDefault("aliases.full_name", defaults.FullName)
		v.SetDefault("aliases.first_name", defaults.FirstName)
		v.SetDefault("aliases.last_name", defaults.LastName)
		v.SetDefault("aliases.email", defaults.Email)
		v.SetDefault("aliases.phone", defaults.Phone)
		v.SetDefault("aliases.event_name", defaults.EventName)
		v.SetDefault("aliases.activity_type", defaults.ActivityType)
		v.SetDefault("aliases.activity_date", defaults.ActivityDate)
		v.SetDefault("aliases.payment_status", defaults.PaymentStatus)
		v.SetDefault("aliases.amount", defaults.Amount)
		v.SetDefault("aliases.date_formats", defaults.DateFormats)
	}

	var aliases AliasConfig
	if err := v.UnmarshalKey("aliases", &aliases); err != nil {
		return nil, err
	}
	aliases = withAliasDefaults(aliases)
	if err := validateAliasConfig(aliases); err != nil {
		return nil, err
	}

	holder := &AliasConfigHolder{}
	holder.current.Store(aliases)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AliasConfig
		if err := v.UnmarshalKey("aliases", &updated); err != nil {
			log.Printf("[alias-config] reload failed: %v", err)
			return
		}
		updated = withAliasDefaults(updated)
		if err := validateAliasConfig(updated); err != nil {
			log.Printf("[alias-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[alias-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticAliasConfigHolder wraps a fixed alias table with no file
// watching, for tools and tests that do not want hot reload.
func NewStaticAliasConfigHolder(cfg AliasConfig) *AliasConfigHolder {
	holder := &AliasConfigHolder{}
	holder.current.Store(withAliasDefaults(cfg))
	return holder
}

func (h *AliasConfigHolder) Get() AliasConfig {
	return h.current.Load().(AliasConfig)
}

// withAliasDefaults fills groups an override file left out, so a partial
// aliases.yml extends the defaults instead of erasing them.
func withAliasDefaults(cfg AliasConfig) AliasConfig {
	defaults := DefaultAliasConfig()
	if len(cfg.FullName) == 0 {
		cfg.FullName = defaults.FullName
	}
	if len(cfg.FirstName) == 0 {
		cfg.FirstName = defaults.FirstName
	}
	if len(cfg.LastName) == 0 {
		cfg.LastName = defaults.LastName
	}
	if len(cfg.Email) == 0 {
		cfg.Email = defaults.Email
	}
	if len(cfg.Phone) == 0 {
		cfg.Phone = defaults.Phone
	}
	if len(cfg.EventName) == 0 {
		cfg.EventName = defaults.EventName
	}
	if len(cfg.ActivityType) == 0 {
		cfg.ActivityType = defaults.ActivityType
	}
	if len(cfg.ActivityDate) == 0 {
		cfg.ActivityDate = defaults.ActivityDate
	}
	if len(cfg.PaymentStatus) == 0 {
		cfg.PaymentStatus = defaults.PaymentStatus
	}
	if len(cfg.Amount) == 0 {
		cfg.Amount = defaults.Amount
	}
	if len(cfg.DateFormats) == 0 {
		cfg.DateFormats = defaults.DateFormats
	}
	return cfg
}

func validateAliasConfig(cfg AliasConfig) error {
	if len(cfg.Email) == 0 {
		return errors.New("aliases.email cannot be empty")
	}
	if len(cfg.Phone) == 0 {
		return errors.New("aliases.phone cannot be empty")
	}
	if len(cfg.DateFormats) == 0 {
		return errors.New("aliases.date_formats cannot be empty")
	}
	return nil
}
