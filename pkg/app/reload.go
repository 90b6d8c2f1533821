package app

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/autopeer-io/simetry/pkg/log"
)

// ReloadLogLevel returns a ReloadFunc that applies a changed log.level
// through setLevel. An invalid level leaves the current one in place.
func ReloadLogLevel(setLevel func(level string) error) ReloadFunc {
	return func(v *viper.Viper, _ fsnotify.Event) {
		level := v.GetString("log.level")
		if err := setLevel(level); err != nil {
			log.Error(err, "Ignoring invalid log level from config", "level", level)
			return
		}
		log.Info("Log level updated", "level", level)
	}
}
