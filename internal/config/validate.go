package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Scrape.Categories) == 0 {
		return fmt.Errorf("config: at least one scrape category is required")
	}
	seen := make(map[string]bool, len(c.Scrape.Categories))
	for _, cat := range c.Scrape.Categories {
		if cat.Name == "" {
			return fmt.Errorf("config: category with empty name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("config: duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if _, err := url.ParseRequestURI(cat.ListingURL); err != nil {
			return fmt.Errorf("config: category %q has invalid listing url %q: %w", cat.Name, cat.ListingURL, err)
		}
	}

	if _, err := url.ParseRequestURI(c.Scrape.BaseURL); err != nil {
		return fmt.Errorf("config: invalid base url %q: %w", c.Scrape.BaseURL, err)
	}
	if c.Scrape.DelaySeconds < 0 {
		return fmt.Errorf("config: scrape delay must not be negative")
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: scrape timeout must be positive")
	}
	if c.Scrape.MaxArticlesPerRun <= 0 {
		return fmt.Errorf("config: max articles per run must be positive")
	}
	if c.Scrape.MaxAttempts <= 0 {
		return fmt.Errorf("config: max fetch attempts must be positive")
	}
	if c.Scrape.UserAgent == "" {
		return fmt.Errorf("config: user agent must not be empty")
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("config: invalid api port %d", c.API.Port)
	}

	return nil
}
