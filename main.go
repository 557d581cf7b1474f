// Host controller: camera frames go up to the pose service, gesture and
// tracking commands go out to the vehicle.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smartcar/capture"
	"smartcar/config"
	"smartcar/control"
	"smartcar/dispatch"
	"smartcar/gesture"
	"smartcar/lock"
	"smartcar/logger"
	"smartcar/monitor"
	"smartcar/perception"
	"smartcar/steering"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sendTimeout := time.Duration(cfg.Car.RequestTimeoutMs) * time.Millisecond
	disp := dispatch.New(
		buildTransport(cfg.Car),
		time.Duration(cfg.Control.MinCommandIntervalMs)*time.Millisecond,
		sendTimeout,
	)
	defer disp.Close()

	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Car.ConnectTimeoutMs)*time.Millisecond)
	if err := disp.Probe(probeCtx); err != nil {
		logger.S().Warnw("vehicle not reachable yet, commands will be dropped until it is",
			"target", cfg.Car.BaseURL(), "error", err)
	}
	cancel()
	// Park the vehicle before the first frame is processed.
	disp.EmergencyStop()
	disp.Start(ctx)

	if cfg.Monitor.Enabled {
		go monitor.StartMon(cfg.Monitor.Port, ctx)
	}

	cam, err := capture.OpenWebcam(
		cfg.Perception.CameraIndex,
		cfg.Perception.Width,
		cfg.Perception.Height,
		cfg.Perception.FlipHorizontal,
	)
	if err != nil {
		logger.Log().Fatal("opening camera", zap.Error(err))
	}
	defer cam.Close()

	stream, err := perception.Open(ctx, perception.StreamConfig{
		ServiceURL:  cfg.Perception.ServiceURL,
		DialTimeout: time.Duration(cfg.Car.ConnectTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		logger.Log().Fatal("opening pose stream", zap.Error(err))
	}
	defer stream.Close()

	lk := lock.NewManager(time.Duration(cfg.Control.GraceWindowMs) * time.Millisecond)
	steer := steering.New(cfg.Control.DeadZonePx)
	steer.SetEnabled(cfg.Control.TrackingEnabled)

	loop := control.NewLoop(control.Config{
		ConfidenceThreshold: cfg.Control.ConfidenceThreshold,
		RightHandAction:     rightAction(cfg.Control.RightHandAction),
		EmergencyStopOnExit: cfg.Control.EmergencyStopOnExit,
	}, lk, steer, disp)

	api := control.NewAPI(loop, lk, steer)
	go func() {
		if err := api.Run(cfg.Control.OperatorPort); err != nil {
			logger.S().Errorw("operator api stopped", "error", err)
		}
	}()

	logger.S().Infow("control loop starting",
		"vehicle", cfg.Car.BaseURL(),
		"mode", cfg.Car.Mode,
		"graceWindowMs", cfg.Control.GraceWindowMs,
		"deadZonePx", cfg.Control.DeadZonePx,
	)
	loop.Run(ctx, stream.Run(ctx, cam))
	if err := stream.Err(); err != nil {
		logger.S().Errorw("pose stream failed", "error", err)
	}
}

func buildTransport(car config.Car) dispatch.Transport {
	timeout := time.Duration(car.RequestTimeoutMs) * time.Millisecond
	if car.Mode == "channel" {
		return dispatch.NewChannelTransport(car.ChannelURL(), timeout)
	}
	return dispatch.NewHTTPTransport(car.BaseURL(), timeout)
}

func rightAction(name string) gesture.Movement {
	if name == "stop" {
		return gesture.Stop
	}
	return gesture.Backward
}
