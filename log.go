package dcrrewards

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
	"github.com/planetdecred/dcrrewards/localtime"
	"github.com/planetdecred/dcrrewards/politeia"
	"github.com/planetdecred/dcrrewards/rewards"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)

	logRotatorMu.Lock()
	if logRotator != nil {
		logRotator.Write(p)
	}
	logRotatorMu.Unlock()

	return len(p), nil
}

// Loggers per subsystem. A single backend logger is created and all subsystem
// loggers created from it will write to the backend. When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file. This must be performed early during application startup by
// calling initLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem loggers.
	// The backend must not be used before the log rotator has been
	// initialized, or data races and/or nil pointer dereferences will occur.
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator   *rotator.Rotator
	logRotatorMu sync.Mutex

	log          = backendLog.Logger("RWDS")
	politeiaLog  = backendLog.Logger("PLTA")
	rewardsLog   = backendLog.Logger("RWRD")
	localtimeLog = backendLog.Logger("LTIM")
)

// Initialize package-global logger variables.
func init() {
	politeia.UseLogger(politeiaLog)
	rewards.UseLogger(rewardsLog)
	localtime.UseLogger(localtimeLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]slog.Logger{
	"RWDS": log,
	"PLTA": politeiaLog,
	"RWRD": rewardsLog,
	"LTIM": localtimeLog,
}

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %v", err)
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %v", err)
	}

	logRotatorMu.Lock()
	if logRotator != nil {
		logRotator.Close()
	}
	logRotator = r
	logRotatorMu.Unlock()

	return nil
}

func closeLogRotator() {
	logRotatorMu.Lock()
	defer logRotatorMu.Unlock()

	if logRotator != nil {
		logRotator.Close()
		logRotator = nil
	}
}

// setLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored. Uninitialized subsystems are dynamically created as
// needed.
func setLogLevel(subsystemID string, logLevel string) {
	// Ignore invalid subsystems.
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := slog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level. It also dynamically creates the subsystem loggers as needed, so it
// can be used to initialize the logging system.
func SetLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// SetSubsystemLogLevel sets the log level of a single subsystem. It reports
// false for an unknown subsystem or level.
func SetSubsystemLogLevel(subsystemID, logLevel string) bool {
	if _, ok := subsystemLoggers[subsystemID]; !ok {
		return false
	}
	if _, ok := slog.LevelFromString(logLevel); !ok {
		return false
	}

	setLogLevel(subsystemID, logLevel)
	return true
}
