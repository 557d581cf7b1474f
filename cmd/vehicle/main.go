// Vehicle endpoint: receives gesture and tracking commands from the host
// and drives the four wheel motors through the motor bridge.
package main

import (
	"flag"
	"time"

	"go.uber.org/zap"

	"smartcar/config"
	"smartcar/logger"
	"smartcar/vehicle"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	cfg, cfgErr := config.Load(*configPath)
	if err := logger.Init(cfg.Logging.Development); err != nil {
		panic(err)
	}
	defer logger.Sync()
	if cfgErr != nil {
		logger.S().Warnw("config load failed, running on defaults", "error", cfgErr)
	}

	driver, err := openDriver(cfg.Motors)
	if err != nil {
		logger.Log().Fatal("opening motor driver", zap.Error(err))
	}

	exec, err := vehicle.NewExecutor(driver, executorConfig(cfg))
	if err != nil {
		logger.Log().Fatal("building motion executor", zap.Error(err))
	}
	// Motors in a known state before the first client connects.
	exec.Stop()

	srv := vehicle.NewServer(exec)
	logger.S().Infow("vehicle server starting", "port", cfg.Vehicle.Port)
	if err := srv.Run(cfg.Vehicle.Port); err != nil {
		logger.Log().Fatal("vehicle server stopped", zap.Error(err))
	}
}

// openDriver picks the serial motor bridge when a device is configured and
// the logging driver otherwise, so the server runs on a bench without
// hardware attached.
func openDriver(m config.Motors) (vehicle.Driver, error) {
	if m.SerialDevice == "" {
		logger.Log().Warn("no serial device configured, using log driver")
		return vehicle.LogDriver{}, nil
	}
	return vehicle.OpenSerialDriver(m.SerialDevice, m.SerialBaud)
}

func executorConfig(cfg config.Config) vehicle.ExecutorConfig {
	return vehicle.ExecutorConfig{
		Polarity:      polarityFrom(cfg.Motors.DirectionCorrection),
		MaxSpeed:      uint8(cfg.Motors.MaxSpeed),
		SyncMotor:     cfg.Motors.SyncStartMotor,
		StartDelay:    time.Duration(cfg.Motors.SyncStartDelayMs) * time.Millisecond,
		RightBackward: cfg.Control.RightHandAction != "stop",
	}
}

// polarityFrom copies the configured correction vector; bad entries are
// caught by NewExecutor's validation.
func polarityFrom(correction []int) vehicle.Polarity {
	p := vehicle.DefaultPolarity
	if len(correction) != vehicle.NumMotors {
		return p
	}
	for i, v := range correction {
		p[i] = int8(v)
	}
	return p
}
