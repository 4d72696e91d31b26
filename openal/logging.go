package openal

import (
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevelEnv is read by OpenAL Soft when the library loads.
const LogLevelEnv = "ALSOFT_LOGLEVEL"

var (
	logLevelMu sync.Mutex
	logLevel   = 0
)

// SetupLogging sets the OpenAL Soft log level for the next library load:
// 0 disabled, 1 errors, 2 warnings, 3 info, 4 debug. It returns true when
// the level changed; Reset must then be called for it to apply.
func SetupLogging(level int) bool {
	if level < 0 {
		level = 0
	}
	if level > 4 {
		level = 4
	}

	logLevelMu.Lock()
	defer logLevelMu.Unlock()

	if level == logLevel {
		return false
	}
	logLevel = level

	if err := os.Setenv(LogLevelEnv, strconv.Itoa(level)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SetupLogging",
			"level":    level,
			"error":    err.Error(),
		}).Warn("Failed to set OpenAL log level")
	}
	return true
}
