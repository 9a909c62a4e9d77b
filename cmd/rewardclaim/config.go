package main

import (
	"io/ioutil"

	"github.com/planetdecred/dcrrewards"
	"gopkg.in/yaml.v2"
)

// Config is the yaml config file of rewardclaim.
type Config struct {
	AppData                  string `yaml:"appdata"`
	Server                   string `yaml:"server"`
	LogLevel                 string `yaml:"loglevel"`
	NTPServer                string `yaml:"ntp_server"`
	NTPCheckInterval         int    `yaml:"ntp_check_interval"`
	MaxConcurrentResolutions *int   `yaml:"max_concurrent_resolutions"`
}

func LoadConfig(f string) (Config, error) {
	var config Config

	b, err := ioutil.ReadFile(f)
	if err != nil {
		return config, err
	}

	if err := yaml.UnmarshalStrict(b, &config); err != nil {
		return config, err
	}

	return config, nil
}

// Merge returns c overridden by the non-empty fields of o.
func (c Config) Merge(o Config) Config {
	if len(o.AppData) > 0 {
		c.AppData = o.AppData
	}
	if len(o.Server) > 0 {
		c.Server = o.Server
	}
	if len(o.LogLevel) > 0 {
		c.LogLevel = o.LogLevel
	}
	if len(o.NTPServer) > 0 {
		c.NTPServer = o.NTPServer
	}
	if o.NTPCheckInterval > 0 {
		c.NTPCheckInterval = o.NTPCheckInterval
	}
	if o.MaxConcurrentResolutions != nil {
		c.MaxConcurrentResolutions = o.MaxConcurrentResolutions
	}
	return c
}

// Apply stores the settings in the data directory. The NTP settings take
// effect on the next start.
func (c Config) Apply(r *dcrrewards.Rewards) error {
	if len(c.LogLevel) > 0 {
		if err := r.SetLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if len(c.Server) > 0 {
		r.SetStringConfigValueForKey(dcrrewards.ProposalServerConfigKey, c.Server)
	}
	if len(c.NTPServer) > 0 {
		r.SetStringConfigValueForKey(dcrrewards.NTPServerConfigKey, c.NTPServer)
	}
	if c.NTPCheckInterval > 0 {
		r.SetIntConfigValueForKey(dcrrewards.NTPCheckIntervalConfigKey, c.NTPCheckInterval)
	}
	if c.MaxConcurrentResolutions != nil {
		if err := r.SetMaxConcurrentResolutions(*c.MaxConcurrentResolutions); err != nil {
			return err
		}
	}
	return nil
}
