package main

import (
	"time"

	"github.com/tinytelemetry/hostmon/internal/model"
)

const (
	defaultEndpoint    = "http://127.0.0.1:8000" + model.DefaultIngestPath
	defaultInterval    = model.DefaultInterval
	defaultPingTarget  = model.DefaultPingTarget
	defaultPingTimeout = model.DefaultPingTimeout
	defaultSendTimeout = model.DefaultSendTimeout
	defaultCPUWindow   = model.DefaultCPUWindow
	defaultDiskPath    = model.DefaultDiskPath
)

// agentConfig is the collector's runtime configuration.
type agentConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api-key"`
	Interval    time.Duration `mapstructure:"interval"`
	PingTarget  string        `mapstructure:"ping-target"`
	PingTimeout time.Duration `mapstructure:"ping-timeout"`
	SendTimeout time.Duration `mapstructure:"send-timeout"`
	CPUWindow   time.Duration `mapstructure:"cpu-window"`
	DiskPath    string        `mapstructure:"disk-path"`
	Host        string        `mapstructure:"host"`
	LogFile     string        `mapstructure:"log-file"`

	ConfigPath string `mapstructure:"-"` // not from config file
}
