package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// OfferConfig holds the defaults used when synthesizing test-mode
// subscriptions: which offer/plan a mock purchase lands on and the
// placeholder identities attached to it.
type OfferConfig struct {
	OfferID          string `mapstructure:"offerId"`
	PlanID           string `mapstructure:"planId"`
	TermUnit         string `mapstructure:"termUnit"`
	BeneficiaryEmail string `mapstructure:"beneficiaryEmail"`
	PurchaserEmail   string `mapstructure:"purchaserEmail"`
}

func DefaultOfferConfig() OfferConfig {
	return OfferConfig{
		OfferID:          "flat-rate-offer",
		PlanID:           "base-plan",
		TermUnit:         "P1M",
		BeneficiaryEmail: "beneficiary@example.test",
		PurchaserEmail:   "purchaser@example.test",
	}
}

// OfferConfigHolder serves the current offer defaults and hot-reloads
// them when the mounted config file changes.
type OfferConfigHolder struct {
	current atomic.Value // holds OfferConfig
}

func NewOfferConfigHolder() (*OfferConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("offer")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/fulfillment/config") // Volume-mounted config
	v.AddConfigPath("/etc/fulfillment")            // System config
	v.AddConfigPath(".")                           // Current directory (dev mode)

	v.SetEnvPrefix("FULFILLMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultOfferConfig()
	v.SetDefault("offer.offerId", defaults.OfferID)
	v.SetDefault("offer.planId", defaults.PlanID)
	v.SetDefault("offer.termUnit", defaults.TermUnit)
	v.SetDefault("offer.beneficiaryEmail", defaults.BeneficiaryEmail)
	v.SetDefault("offer.purchaserEmail", defaults.PurchaserEmail)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg OfferConfig
	if err := v.UnmarshalKey("offer", &cfg); err != nil {
		return nil, err
	}
	if err := validateOfferConfig(cfg); err != nil {
		return nil, err
	}

	holder := &OfferConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated OfferConfig
		if err := v.UnmarshalKey("offer", &updated); err != nil {
			log.Printf("[offer-config] reload failed: %v", err)
			return
		}
		if err := validateOfferConfig(updated); err != nil {
			log.Printf("[offer-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

// Current returns the active offer defaults.
func (h *OfferConfigHolder) Current() OfferConfig {
	if h == nil {
		return DefaultOfferConfig()
	}
	cfg, ok := h.current.Load().(OfferConfig)
	if !ok {
		return DefaultOfferConfig()
	}
	return cfg
}

func validateOfferConfig(cfg OfferConfig) error {
	if strings.TrimSpace(cfg.OfferID) == "" {
		return errors.New("offer.offerId is required")
	}
	if strings.TrimSpace(cfg.PlanID) == "" {
		return errors.New("offer.planId is required")
	}
	if strings.TrimSpace(cfg.TermUnit) == "" {
		return errors.New("offer.termUnit is required")
	}
	return nil
}
