package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.BaseURL == "" {
		return errors.New("archive.base_url must be set")
	}
	if c.Archive.Table == "" {
		return errors.New("archive.table must be set")
	}
	if c.Archive.TimeoutSeconds <= 0 {
		return errors.New("archive.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if !c.Classifier.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Classifier.URL) == "" {
		return errors.New("classifier.url must be set when classifier.enabled is true")
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		return errors.New("classifier.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNaming() error {
	if c.Naming.CatalogPrefix == "" {
		return errors.New("naming.catalog_prefix must be set")
	}
	if strings.ContainsAny(c.Naming.CatalogPrefix, " -") {
		return errors.New("naming.catalog_prefix must not contain spaces or dashes")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	if err := ValidateSchedule(c.Scheduler.Pattern, c.Scheduler.Timezone); err != nil {
		return err
	}
	return nil
}

// ValidateSchedule checks a cron pattern and timezone pair without applying it.
func ValidateSchedule(pattern, timezone string) error {
	if strings.TrimSpace(pattern) == "" {
		return errors.New("scheduler.pattern must be set")
	}
	if _, err := cron.ParseStandard(pattern); err != nil {
		return fmt.Errorf("scheduler.pattern %q: %w", pattern, err)
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return fmt.Errorf("scheduler.timezone %q: %w", timezone, err)
		}
	}
	return nil
}
