package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"wastetwin/internal/apiclient"
	"wastetwin/internal/config"
)

// skipConfigAnnotation marks commands that must run without a loadable config.
const skipConfigAnnotation = "skipConfigLoad"

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	api    string
	config string
}

type commandContext struct {
	flags      *rootFlags
	loadConfig func() (*config.Config, error)
}

func newCommandContext(flags *rootFlags) *commandContext {
	c := &commandContext{flags: flags}
	c.loadConfig = sync.OnceValues(func() (*config.Config, error) {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			return nil, err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		return cfg, nil
	})
	return c
}

// ensureConfig loads the config once per invocation.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	return c.loadConfig()
}

func (c *commandContext) configPath() string {
	return strings.TrimSpace(c.flags.config)
}

func (c *commandContext) apiOverride() string {
	return strings.TrimSpace(c.flags.api)
}

// apiBind prefers --api over paths.api_bind.
func (c *commandContext) apiBind() (string, error) {
	if bind := c.apiOverride(); bind != "" {
		return bind, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Paths.APIBind, nil
}

// withClient runs fn against the daemon API and turns transport failures
// into a hint to start the daemon.
func (c *commandContext) withClient(fn func(*apiclient.Client) error) error {
	bind, err := c.apiBind()
	if err != nil {
		return err
	}
	client, err := apiclient.New(bind)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	return wrapClientError(fn(client), bind)
}

func wrapClientError(err error, bind string) error {
	var statusErr *apiclient.StatusError
	switch {
	case err == nil:
		return nil
	case apiclient.IsAPIUnavailable(err):
		return fmt.Errorf("connect to daemon: nothing answered at %s; start it with `wastetwin daemon`", bind)
	case errors.As(err, &statusErr) && statusErr.Message != "":
		return errors.New(statusErr.Message)
	default:
		return err
	}
}

func skipConfig() map[string]string {
	return map[string]string{skipConfigAnnotation: "true"}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
