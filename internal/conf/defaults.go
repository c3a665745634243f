package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("storage.basepath", "~/.tonebank")

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.sqlite.path", "tonebank.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.username", "tonebank")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "tonebank")

	v.SetDefault("resolver.confidence", 0.8)
	v.SetDefault("resolver.defaultsamplerate", 44100)
	v.SetDefault("resolver.defaultoctave", 4)
	v.SetDefault("resolver.tracker.framesize", 2048)
	v.SetDefault("resolver.tracker.hopsize", 512)
	v.SetDefault("resolver.tracker.threshold", 0.15)
	v.SetDefault("resolver.tracker.minfrequency", 40.0)
	v.SetDefault("resolver.tracker.maxfrequency", 2000.0)

	v.SetDefault("lookup.cachettl", "0s")

	v.SetDefault("server.listen", ":8090")

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/tonebank.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")
}
