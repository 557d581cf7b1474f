// Motor calibration pass: spins each wheel forward one at a time so a
// human can note which ones run backward and fill in the
// motors.directionCorrection vector in config.yaml.
package main

import (
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"smartcar/config"
	"smartcar/logger"
	"smartcar/vehicle"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	spin := flag.Duration("spin", 2*time.Second, "how long to run each motor")
	flag.Parse()

	cfg, cfgErr := config.Load(*configPath)
	if err := logger.Init(true); err != nil {
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

	// Identity polarity on purpose: the pass measures raw wiring, so the
	// configured correction must not mask a reversed motor.
	exec, err := vehicle.NewExecutor(driver, vehicle.ExecutorConfig{
		Polarity: vehicle.Polarity{1, 1, 1, 1},
		MaxSpeed: uint8(cfg.Motors.MaxSpeed),
	})
	if err != nil {
		logger.Log().Fatal("building motion executor", zap.Error(err))
	}

	fmt.Println("Spinning each motor forward. Note every wheel that turns backward")
	fmt.Println("and set its motors.directionCorrection entry to -1.")
	for motor := 0; motor < vehicle.NumMotors; motor++ {
		fmt.Printf("motor %d (%s): forward for %s\n", motor, vehicle.MotorName(motor), *spin)
		if err := exec.DriveMotor(motor, vehicle.MotorForward); err != nil {
			logger.Log().Fatal("driving motor", zap.Int("motor", motor), zap.Error(err))
		}
		time.Sleep(*spin)
		if err := exec.DriveMotor(motor, vehicle.MotorStop); err != nil {
			logger.Log().Fatal("stopping motor", zap.Int("motor", motor), zap.Error(err))
		}
		time.Sleep(500 * time.Millisecond)
	}
	exec.Stop()
	fmt.Println("Calibration pass done.")
}

func openDriver(m config.Motors) (vehicle.Driver, error) {
	if m.SerialDevice == "" {
		logger.Log().Warn("no serial device configured, using log driver")
		return vehicle.LogDriver{}, nil
	}
	return vehicle.OpenSerialDriver(m.SerialDevice, m.SerialBaud)
}
