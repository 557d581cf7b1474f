// Package config loads the shared config.yaml for the host controller and
// the vehicle endpoint. Missing files and bad values fall back to defaults
// so a misplaced config never strands the system.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Car        Car        `yaml:"car"`
	Control    Control    `yaml:"control"`
	Motors     Motors     `yaml:"motors"`
	Perception Perception `yaml:"perception"`
	Vehicle    Vehicle    `yaml:"vehicle"`
	Monitor    Monitor    `yaml:"monitor"`
	Logging    Logging    `yaml:"logging"`
}

// Car addresses the vehicle endpoint from the host side.
type Car struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Mode selects the transport: "http" for discrete requests or
	// "channel" for the persistent websocket.
	Mode             string `yaml:"mode"`
	RequestTimeoutMs int    `yaml:"requestTimeoutMs"`
	ConnectTimeoutMs int    `yaml:"connectTimeoutMs"`
}

func (c Car) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

func (c Car) ChannelURL() string {
	return fmt.Sprintf("ws://%s:%d/ws", c.Host, c.Port)
}

type Control struct {
	ConfidenceThreshold  float64 `yaml:"confidenceThreshold"`
	DeadZonePx           int     `yaml:"deadZonePx"`
	GraceWindowMs        int     `yaml:"graceWindowMs"`
	MinCommandIntervalMs int     `yaml:"minCommandIntervalMs"`
	// RightHandAction is "backward" or "stop"; the deployed firmware
	// variants disagreed, so it is an explicit choice.
	RightHandAction     string `yaml:"rightHandAction"`
	TrackingEnabled     bool   `yaml:"trackingEnabled"`
	OperatorPort        int    `yaml:"operatorPort"`
	EmergencyStopOnExit bool   `yaml:"emergencyStopOnExit"`
}

type Motors struct {
	// DirectionCorrection holds one +-1 entry per motor in wiring order
	// front-right, back-right, front-left, back-left.
	DirectionCorrection []int  `yaml:"directionCorrection"`
	MaxSpeed            int    `yaml:"maxSpeed"`
	SyncStartMotor      int    `yaml:"syncStartMotor"`
	SyncStartDelayMs    int    `yaml:"syncStartDelayMs"`
	SerialDevice        string `yaml:"serialDevice"`
	SerialBaud          int    `yaml:"serialBaud"`
}

type Perception struct {
	ServiceURL     string `yaml:"serviceUrl"`
	CameraIndex    int    `yaml:"cameraIndex"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	FlipHorizontal bool   `yaml:"flipHorizontal"`
}

type Vehicle struct {
	Port int `yaml:"port"`
}

type Monitor struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type Logging struct {
	Development bool `yaml:"development"`
}

// Default returns the configuration for the reference chassis.
func Default() Config {
	return Config{
		Car: Car{
			Host:             "192.168.1.112",
			Port:             8090,
			Mode:             "http",
			RequestTimeoutMs: 2000,
			ConnectTimeoutMs: 5000,
		},
		Control: Control{
			ConfidenceThreshold:  0.5,
			DeadZonePx:           50,
			GraceWindowMs:        10000,
			MinCommandIntervalMs: 100,
			RightHandAction:      "backward",
			TrackingEnabled:      true,
			OperatorPort:         8081,
			EmergencyStopOnExit:  true,
		},
		Motors: Motors{
			DirectionCorrection: []int{-1, 1, 1, 1},
			MaxSpeed:            255,
			SyncStartMotor:      2,
			SyncStartDelayMs:    50,
			SerialBaud:          115200,
		},
		Perception: Perception{
			ServiceURL:     "http://127.0.0.1:8080",
			CameraIndex:    0,
			Width:          640,
			Height:         480,
			FlipHorizontal: true,
		},
		Vehicle: Vehicle{Port: 8090},
		Monitor: Monitor{Enabled: true, Port: 50053},
		Logging: Logging{Development: false},
	}
}

// Load reads path over the defaults. A missing file yields defaults with no
// error; a file that fails to parse yields defaults plus the error so the
// caller can log it and keep running.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize clamps values that would break the control loop if they leaked
// through from a hand-edited file.
func (c *Config) normalize() {
	if c.Control.DeadZonePx < 1 {
		c.Control.DeadZonePx = 1
	}
	if c.Control.GraceWindowMs <= 0 {
		c.Control.GraceWindowMs = 10000
	}
	if c.Control.MinCommandIntervalMs < 0 {
		c.Control.MinCommandIntervalMs = 0
	}
	if c.Control.RightHandAction != "stop" && c.Control.RightHandAction != "backward" {
		c.Control.RightHandAction = "backward"
	}
	if c.Car.Mode != "http" && c.Car.Mode != "channel" {
		c.Car.Mode = "http"
	}
	if c.Motors.MaxSpeed < 1 || c.Motors.MaxSpeed > 255 {
		c.Motors.MaxSpeed = 255
	}
	if len(c.Motors.DirectionCorrection) != 4 {
		c.Motors.DirectionCorrection = []int{-1, 1, 1, 1}
	}
	if c.Motors.SyncStartMotor < 0 || c.Motors.SyncStartMotor > 3 {
		c.Motors.SyncStartMotor = 2
	}
	if c.Motors.SyncStartDelayMs < 0 {
		c.Motors.SyncStartDelayMs = 0
	}
}
