package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.MaxConcurrent < 1 {
		return errors.New("engine.max_concurrent must be at least 1")
	}
	if c.Engine.MaxEnqueue < 1 {
		return errors.New("engine.max_enqueue must be at least 1")
	}
	if c.Engine.TotalSteps < 1 {
		return errors.New("engine.total_steps must be at least 1")
	}
	if c.Engine.MaxStepDelayMS < 0 {
		return errors.New("engine.max_step_delay_ms must be zero or positive")
	}
	if c.Engine.HistoryLimit < 1 {
		return errors.New("engine.history_limit must be at least 1")
	}
	if c.Engine.FailedLimit < 1 {
		return errors.New("engine.failed_limit must be at least 1")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	if c.Workflow.SeedOnStart < 0 {
		return errors.New("workflow.seed_on_start must be zero or positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 1 {
		return errors.New("events.buffer_size must be at least 1")
	}
	if c.Events.SubscriberBuffer < 1 {
		return errors.New("events.subscriber_buffer must be at least 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
