package dcrrewards

import (
	"github.com/asdine/storm"
)

const (
	userConfigDbFilename = "config.db"
	userConfigBucketName = "user_config"

	LogLevelConfigKey                 = "log_level"
	ProposalServerConfigKey           = "proposal_server"
	NTPServerConfigKey                = "ntp_server"
	NTPCheckIntervalConfigKey         = "ntp_check_interval"
	MaxConcurrentResolutionsConfigKey = "max_concurrent_resolutions"

	DefaultLogLevel = "info"

	// DefaultNTPCheckInterval is in seconds.
	DefaultNTPCheckInterval = 600
)

func (r *Rewards) SaveUserConfigValue(key string, value interface{}) error {
	return r.configDB.Set(userConfigBucketName, key, value)
}

func (r *Rewards) ReadUserConfigValue(key string, valueOut interface{}) error {
	return r.configDB.Get(userConfigBucketName, key, valueOut)
}

func (r *Rewards) SetIntConfigValueForKey(key string, value int) {
	err := r.SaveUserConfigValue(key, value)
	if err != nil {
		log.Errorf("error setting config value: %v", err)
	}
}

func (r *Rewards) SetStringConfigValueForKey(key, value string) {
	err := r.SaveUserConfigValue(key, value)
	if err != nil {
		log.Errorf("error setting config value: %v", err)
	}
}

func (r *Rewards) ReadIntConfigValueForKey(key string, defaultValue int) (valueOut int) {
	err := r.ReadUserConfigValue(key, &valueOut)
	if err != nil {
		if err == storm.ErrNotFound {
			valueOut = defaultValue
			return
		}
		log.Errorf("error reading config value: %v", err)
	}
	return
}

func (r *Rewards) ReadStringConfigValueForKey(key, defaultValue string) (valueOut string) {
	err := r.ReadUserConfigValue(key, &valueOut)
	if err != nil {
		if err == storm.ErrNotFound {
			valueOut = defaultValue
			return
		}
		log.Errorf("error reading config value: %v", err)
	}
	return
}

// SetLogLevel stores level and applies it to every subsystem.
func (r *Rewards) SetLogLevel(level string) error {
	if !SetSubsystemLogLevel("RWDS", level) {
		return errInvalidLogLevel(level)
	}
	SetLogLevels(level)
	return r.SaveUserConfigValue(LogLevelConfigKey, level)
}
