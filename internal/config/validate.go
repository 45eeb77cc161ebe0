package config

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"
)

// Log levels and formats accepted in [logging].
var (
	LogLevels  = []interface{}{"debug", "info", "warn", "error"}
	LogFormats = []interface{}{"text", "json"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Library.Validate(); err != nil {
		return fmt.Errorf("library: %w", err)
	}
	if err := c.Preview.Validate(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

// Validate validates the logging configuration.
func (l *Logging) Validate() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Level, validation.Required, validation.In(LogLevels...)),
		validation.Field(&l.Format, validation.Required, validation.In(LogFormats...)),
	)
}

// Validate validates the library configuration.
func (l *Library) Validate() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Locale, validation.By(isLocale)),
		validation.Field(&l.Workers, validation.Min(0), validation.Max(256)),
	)
}

// Validate validates the preview configuration.
func (p *Preview) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.MaxWidth, validation.Min(0)),
		validation.Field(&p.JPEGQuality, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

func isLocale(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := language.Parse(s); err != nil {
		return errors.New("must be a BCP 47 language tag")
	}
	return nil
}
