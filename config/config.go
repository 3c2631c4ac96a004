// Package config loads codec and I/O settings from an INI file.
//
//	[codec]
//	rate = 3/4
//	pattern = 111001 ; overrides the pattern of the rate profile
//	traceback = 60   ; overrides the traceback depth of the rate profile
//	frame = 25       ; payload bytes per CRC frame, 0 for raw bit streams
//
//	[io]
//	serial = /dev/ttyUSB0
//	baud = 115200
//
//	[log]
//	level = INFO
package config

import (
	"fmt"
	"strings"

	"github.com/jancona/convfec/conv"
	"gopkg.in/ini.v1"
)

const (
	DefaultRate     = "1/2"
	DefaultBaud     = 115200
	DefaultLogLevel = "INFO"
)

var logLevels = []string{"DEBUG", "INFO", "ERROR"}

type Config struct {
	Rate      string
	Pattern   string
	Traceback int
	FrameSize int

	Serial string
	Baud   int

	LogLevel string
}

func Default() *Config {
	return &Config{
		Rate:     DefaultRate,
		Baud:     DefaultBaud,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads an INI file. source is a file name or the file contents as []byte.
func Load(source any) (*Config, error) {
	f, err := ini.Load(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c := Default()

	codec := f.Section("codec")
	c.Rate = codec.Key("rate").MustString(c.Rate)
	c.Pattern = codec.Key("pattern").String()
	if codec.HasKey("traceback") {
		c.Traceback, err = codec.Key("traceback").Int()
		if err != nil {
			return nil, fmt.Errorf("codec.traceback: %w", err)
		}
	}
	if codec.HasKey("frame") {
		c.FrameSize, err = codec.Key("frame").Int()
		if err != nil {
			return nil, fmt.Errorf("codec.frame: %w", err)
		}
	}

	io := f.Section("io")
	c.Serial = io.Key("serial").String()
	if io.HasKey("baud") {
		c.Baud, err = io.Key("baud").Int()
		if err != nil {
			return nil, fmt.Errorf("io.baud: %w", err)
		}
	}

	c.LogLevel = strings.ToUpper(f.Section("log").Key("level").MustString(c.LogLevel))

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Profile resolves the rate profile with any pattern or traceback override applied.
func (c *Config) Profile() (conv.Profile, error) {
	p, err := conv.LookupProfile(c.Rate)
	if err != nil {
		return conv.Profile{}, err
	}
	if c.Pattern != "" {
		p.Pattern, err = conv.ParsePuncturePattern(c.Pattern)
		if err != nil {
			return conv.Profile{}, err
		}
		p.Name = "custom"
	}
	if c.Traceback != 0 {
		p.TracebackDepth = c.Traceback
	}
	return p, p.Validate()
}

func (c *Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return err
	}
	if c.Traceback < 0 {
		return fmt.Errorf("%w: traceback depth %d must be positive", conv.ErrInvalidConfiguration, c.Traceback)
	}
	if c.FrameSize < 0 {
		return fmt.Errorf("frame size %d must not be negative", c.FrameSize)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud rate %d must be positive", c.Baud)
	}
	for _, l := range logLevels {
		if c.LogLevel == l {
			return nil
		}
	}
	return fmt.Errorf("log level %q must be one of %v", c.LogLevel, logLevels)
}
