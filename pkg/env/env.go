// Package env configures the board and host commands from environment
// variables and flags.
package env

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/twinboard/pkg/firmware"
	"github.com/robotalks/twinboard/pkg/mqtt"
	"github.com/robotalks/twinboard/pkg/serial"
	// serial link schemes
	_ "github.com/robotalks/twinboard/pkg/serial/mqtt"
	_ "github.com/robotalks/twinboard/pkg/serial/websocket"
)

// Config provides common options of the commands.
type Config struct {
	// ID names this board.
	ID string
	// Peer names the board at the other end of an mqtt link.
	Peer string
	// LinkURL selects the serial link, see serial.Open.
	// e.g. tcp://host:7401, mqtt://host:1883/twinboard/
	LinkURL string
	// MQTTBrokerURL for telemetry, empty disables it.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
}

var defaultConfig = Config{
	LinkURL: "tcp-listen://:7401",
}

func init() {
	if val := os.Getenv("TWINBOARD_ID"); val != "" {
		defaultConfig.ID = val
	}
	if val := os.Getenv("TWINBOARD_PEER"); val != "" {
		defaultConfig.Peer = val
	}
	if val := os.Getenv("TWINBOARD_LINK"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("TWINBOARD_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Board ID, machine ID if empty")
	flag.StringVar(&defaultConfig.Peer, "peer", defaultConfig.Peer, "Peer board ID for mqtt links")
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Serial link URL")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for telemetry")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	if conf.ID == "" {
		conf.ID = MachineID()
	}
	return &conf
}

// LinkURLWithIDs fills id and peer into mqtt link URLs.
func (c *Config) LinkURLWithIDs() (string, error) {
	u, err := url.Parse(c.LinkURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "mqtt" && u.Scheme != "mqtts" {
		return c.LinkURL, nil
	}
	query := u.Query()
	if query.Get("id") == "" {
		query.Set("id", c.ID)
	}
	if query.Get("peer") == "" {
		if c.Peer == "" {
			return "", fmt.Errorf("peer ID is required for %s", c.LinkURL)
		}
		query.Set("peer", c.Peer)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// OpenLink opens the serial link.
func (c *Config) OpenLink() (serial.Driver, error) {
	linkURL, err := c.LinkURLWithIDs()
	if err != nil {
		return nil, err
	}
	return serial.Open(linkURL)
}

// MustOpenLink opens the serial link and fails on error.
func (c *Config) MustOpenLink() serial.Driver {
	d, err := c.OpenLink()
	if err != nil {
		log.Fatalln(err)
	}
	return d
}

// NewQueue creates the telemetry queue, nil if disabled.
func (c *Config) NewQueue(role string) (*mqtt.Queue, error) {
	if c.MQTTBrokerURL == "" {
		return nil, nil
	}
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, fmt.Errorf("MQTT broker URL error: %v", err)
	}
	if opts.ClientID == "" {
		opts.SetClientID("twinboard-" + role + "-" + c.ID)
	}
	return mqtt.NewQueue(opts, topicPrefix), nil
}

// FirmwareConfig returns board timings with this board's ID.
func (c *Config) FirmwareConfig() firmware.Config {
	cfg := firmware.DefaultConfig()
	cfg.ID = c.ID
	return cfg
}
