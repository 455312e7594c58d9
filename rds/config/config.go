package config

import "github.com/spf13/viper"

const (
	defaultLogDir       = "/tmp/upgctl"
	defaultSecretTagKey = "masteruser-secret"
)

// Config carries every per-run setting the orchestrator needs. It is
// built once in the command layer; components never read the environment
// themselves. An empty LogBucket or TopicARN disables the matching
// finalize step.
type Config struct {
	LogDir         string
	LogBucket      string
	TopicARN       string
	SecretTagKey   string
	SkipSnapshot   bool
	TuneParameters bool
	DropSlots      bool
}

// FromViper resolves the run configuration from the environment and any
// config file viper has loaded.
func FromViper() Config {
	c := Config{
		LogDir:         viper.GetString("UPGCTL_LOG_DIR"),
		LogBucket:      viper.GetString("UPGCTL_LOG_BUCKET"),
		TopicARN:       viper.GetString("UPGCTL_SNS_TOPIC"),
		SecretTagKey:   viper.GetString("UPGCTL_SECRET_TAG"),
		SkipSnapshot:   viper.GetBool("UPGCTL_SKIP_SNAPSHOT"),
		TuneParameters: viper.GetBool("UPGCTL_TUNE_PARAMS"),
		DropSlots:      viper.GetBool("UPGCTL_DROP_SLOTS"),
	}
	if c.LogDir == "" {
		c.LogDir = defaultLogDir
	}
	if c.SecretTagKey == "" {
		c.SecretTagKey = defaultSecretTagKey
	}
	return c
}
