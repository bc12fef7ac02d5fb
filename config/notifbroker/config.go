package notifbroker

import "github.com/spf13/viper"

// Config configures the notification broker domain: its command mailbox,
// its realtime fan-out channel, and the optional error-reporting sidecar.
type Config struct {
	MailboxSize      int           `mapstructure:"mailbox_size"`
	RealtimeCapacity int           `mapstructure:"realtime_capacity"`
	HTTPBasePath     string        `mapstructure:"http_base_path"`
	ErrorSidecar     SidecarConfig `mapstructure:"error_sidecar"`
}

type SidecarConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CollectorURL string `mapstructure:"collector_url"`
}

func SetDefault() {
	viper.SetDefault("notifbroker.mailbox_size", 256)
	viper.SetDefault("notifbroker.realtime_capacity", 1024)
	viper.SetDefault("notifbroker.http_base_path", "/api/notifbroker")
	viper.SetDefault("notifbroker.error_sidecar.enabled", false)
	viper.SetDefault("notifbroker.error_sidecar.collector_url", "")
}
