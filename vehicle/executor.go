package vehicle

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"smartcar/logger"
	"smartcar/protocol"
)

// ExecutorConfig fixes the chassis-specific parameters. Polarity comes from
// the calibration pass and is applied to every command; SyncMotor is the
// wheel that lags on startup and gets energized StartDelay ahead of the
// rest on full-forward commands.
type ExecutorConfig struct {
	Polarity      Polarity
	MaxSpeed      uint8
	SyncMotor     int
	StartDelay    time.Duration
	RightBackward bool
}

// Executor drives the four wheel motors from decoded command codes.
// Commands apply newest-wins: a command arriving during a synchronized
// start cancels the pending phase and all motors settle on the new target.
type Executor struct {
	driver     Driver
	polarity   Polarity
	maxSpeed   uint8
	syncMotor  int
	startDelay time.Duration
	patterns   map[protocol.Code]pattern

	mu      sync.Mutex
	gen     uint64
	current [NumMotors]MotorCommand

	after func(time.Duration) <-chan time.Time
}

func NewExecutor(driver Driver, cfg ExecutorConfig) (*Executor, error) {
	if err := cfg.Polarity.Validate(); err != nil {
		return nil, err
	}
	if cfg.SyncMotor < 0 || cfg.SyncMotor >= NumMotors {
		return nil, fmt.Errorf("sync motor index %d out of range", cfg.SyncMotor)
	}
	if cfg.MaxSpeed == 0 {
		cfg.MaxSpeed = 255
	}
	return &Executor{
		driver:     driver,
		polarity:   cfg.Polarity,
		maxSpeed:   cfg.MaxSpeed,
		syncMotor:  cfg.SyncMotor,
		startDelay: cfg.StartDelay,
		patterns:   commandPatterns(cfg.RightBackward),
		after:      time.After,
	}, nil
}

// Apply executes one command code. Codes outside the table resolve to a
// full stop.
func (e *Executor) Apply(code protocol.Code) {
	pat, ok := e.patterns[code]
	if !ok {
		logger.Log().Warn("unknown command code, stopping", zap.Int("code", int(code)))
		pat = allStop
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	gen := e.gen

	if pat.syncStart && e.startDelay > 0 {
		// The lagging motor gets a head start so the chassis pulls away
		// straight instead of veering.
		e.driveLocked(e.syncMotor, pat.motors[e.syncMotor])
		wait := e.after(e.startDelay)
		go func() {
			<-wait
			e.mu.Lock()
			defer e.mu.Unlock()
			if e.gen != gen {
				// Superseded while staggering; the newer command has
				// already driven every motor.
				return
			}
			for m := 0; m < NumMotors; m++ {
				if m == e.syncMotor {
					continue
				}
				e.driveLocked(m, pat.motors[m])
			}
		}()
		return
	}

	for m := 0; m < NumMotors; m++ {
		e.driveLocked(m, pat.motors[m])
	}
}

// Stop halts all motors immediately. Also the disconnect handler: absent
// commands must never read as "continue last motion".
func (e *Executor) Stop() {
	e.Apply(protocol.Stop)
}

// driveLocked is the single drive primitive; polarity correction happens
// here and nowhere else.
func (e *Executor) driveLocked(motor int, cmd MotorCommand) {
	corrected := MotorCommand(int8(cmd) * e.polarity[motor])
	var in1, in2 uint8
	switch corrected {
	case MotorForward:
		in1, in2 = e.maxSpeed, 0
	case MotorBackward:
		in1, in2 = 0, e.maxSpeed
	default:
		in1, in2 = 0, 0
	}
	if err := e.driver.Write(motor, in1, in2); err != nil {
		logger.S().Errorw("motor write failed", "motor", motorNames[motor], "error", err)
		return
	}
	e.current[motor] = cmd
}

// DriveMotor spins a single motor directly. Calibration tool only.
func (e *Executor) DriveMotor(motor int, cmd MotorCommand) error {
	if motor < 0 || motor >= NumMotors {
		return fmt.Errorf("motor index %d out of range", motor)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.driveLocked(motor, cmd)
	return nil
}

// Current reports the logical (pre-polarity) state of each motor.
func (e *Executor) Current() [NumMotors]MotorCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}
