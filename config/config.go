// SPDX-License-Identifier: EPL-2.0

// Package config loads process configuration from file and environment.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the playback process can be configured with.
type Config struct {
	MIDI     MIDIConfig     `mapstructure:"midi"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// MIDIConfig configures the SoundFont synthesizer.
type MIDIConfig struct {
	SoundFont string `mapstructure:"soundfont"`
	Chorus    bool   `mapstructure:"chorus"`
	Reverb    bool   `mapstructure:"reverb"`
}

// PlaybackConfig configures the output device.
type PlaybackConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from audstream.yaml and AUDSTREAM_* environment
// variables. A missing config file is fine; defaults apply.
func Load() (*Config, error) {
	viper.SetDefault("midi.soundfont", "")
	viper.SetDefault("midi.chorus", true)
	viper.SetDefault("midi.reverb", true)
	viper.SetDefault("playback.sample_rate", 44100)
	viper.SetDefault("playback.channels", 2)
	viper.SetDefault("logging.level", "info")

	viper.SetConfigName("audstream")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.audstream")
	viper.AddConfigPath("/etc/audstream")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("AUDSTREAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
