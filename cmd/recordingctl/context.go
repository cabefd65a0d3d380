package main

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/worker"

	applog "github.com/instill-ai/recording-backend/pkg/logger"
)

// commandContext carries state shared by the commands. dial is replaced in
// tests.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	configErr  error

	dial func() (temporalclient.Client, error)
}

func newCommandContext(configFlag *string) *commandContext {
	c := &commandContext{configFlag: configFlag}
	c.dial = c.dialTemporal
	return c
}

func (c *commandContext) ensureConfig() error {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		if err := config.Init(path); err != nil {
			c.configErr = fmt.Errorf("loading config %s: %w", path, err)
		}
	})
	return c.configErr
}

func (c *commandContext) dialTemporal() (temporalclient.Client, error) {
	client, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  config.Config.Temporal.HostPort,
		Namespace: config.Config.Temporal.Namespace,
		Logger:    applog.NewTemporalLogger(zap.NewNop()),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to temporal at %s: %w", config.Config.Temporal.HostPort, err)
	}
	return client, nil
}

// withWorker runs fn with a worker bound to a fresh Temporal client. Only
// the workflow starters of the worker are used.
func (c *commandContext) withWorker(fn func(temporalclient.Client, *worker.Worker) error) error {
	client, err := c.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	w, err := worker.New(worker.Config{SweepLookbackDays: config.Config.Sweep.LookbackDays}, nil)
	if err != nil {
		return err
	}
	return fn(client, w)
}
