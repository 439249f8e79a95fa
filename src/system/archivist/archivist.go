package archivist

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/voodooEntity/neuroplex/src/system/interfaces"
)

const (
	LEVEL_DEBUG   = 1
	LEVEL_INFO    = 2
	LEVEL_WARNING = 3
	LEVEL_ERROR   = 4
	LEVEL_FATAL   = 5
)

// Granular debug verbosity, only consulted when the log level is debug.
const (
	DEBUG_LEVEL_TRACE  = iota + 1 // execution flow of the step loop
	DEBUG_LEVEL_INFO              // informational debug messages
	DEBUG_LEVEL_DETAIL            // per-phase detail
	DEBUG_LEVEL_DUMP              // dumping whole payloads and tables
	DEBUG_LEVEL_MAX               // everything
)

var levelNames = [...]string{"debug", "info", "warning", "error", "fatal"}

// Archivist is the house logger: leveled output with granular debug
// verbosity and caller file#line attribution, writing finished lines to a
// pluggable sink.
type Archivist struct {
	minLevel   int
	debugLevel int
	logger     interfaces.LoggerInterface
}

type Config struct {
	Logger     interfaces.LoggerInterface
	LogLevel   int
	DebugLevel int
}

func New(conf *Config) *Archivist {
	a := &Archivist{}
	a.SetLogger(conf.Logger)
	a.SetLogLevel(conf.LogLevel)
	if conf.LogLevel == LEVEL_DEBUG {
		a.SetDebugLevel(conf.DebugLevel)
	}
	return a
}

// store renders and emits one log line. The caller file and line are taken
// two frames up, the exported wrappers.
func (a *Archivist) store(level int, message string, formatted bool, params []interface{}) {
	_, file, line, _ := runtime.Caller(2)
	pathParts := strings.Split(file, "/")
	packageFile := pathParts[len(pathParts)-1]

	logLine := time.Now().Format("2006-01-02 15:04:05") + "|" + levelNames[level-1] + "|" + packageFile + "#" + strconv.Itoa(line) + "|"
	switch {
	case len(params) == 0:
		logLine += message
	case formatted:
		logLine += fmt.Sprintf(message, params...)
	default:
		logLine += message + "|" + fmt.Sprintf("%+v", params)
	}
	a.logger.Println(logLine)
}

func (a *Archivist) Error(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_ERROR {
		a.store(LEVEL_ERROR, message, false, params)
	}
}

func (a *Archivist) ErrorF(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_ERROR {
		a.store(LEVEL_ERROR, message, true, params)
	}
}

func (a *Archivist) Fatal(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_FATAL {
		a.store(LEVEL_FATAL, message, false, params)
	}
}

func (a *Archivist) FatalF(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_FATAL {
		a.store(LEVEL_FATAL, message, true, params)
	}
}

func (a *Archivist) Info(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_INFO {
		a.store(LEVEL_INFO, message, false, params)
	}
}

func (a *Archivist) InfoF(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_INFO {
		a.store(LEVEL_INFO, message, true, params)
	}
}

func (a *Archivist) Warning(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_WARNING {
		a.store(LEVEL_WARNING, message, false, params)
	}
}

func (a *Archivist) WarningF(message string, params ...interface{}) {
	if a.minLevel <= LEVEL_WARNING {
		a.store(LEVEL_WARNING, message, true, params)
	}
}

func (a *Archivist) Debug(level int, message string, params ...interface{}) {
	if a.minLevel <= LEVEL_DEBUG && level <= a.debugLevel {
		a.store(LEVEL_DEBUG, message, false, params)
	}
}

func (a *Archivist) DebugF(level int, message string, params ...interface{}) {
	if a.minLevel <= LEVEL_DEBUG && level <= a.debugLevel {
		a.store(LEVEL_DEBUG, message, true, params)
	}
}

func (a *Archivist) SetLogLevel(logLevel int) {
	if logLevel == 0 {
		logLevel = LEVEL_WARNING
	}
	if logLevel < LEVEL_DEBUG || logLevel > LEVEL_FATAL {
		a.Error("Given LOG_LEVEL is unknown, defaulting to LEVEL_WARNING, provided was: ", logLevel)
		logLevel = LEVEL_WARNING
	}
	a.minLevel = logLevel
}

func (a *Archivist) SetDebugLevel(level int) {
	if level < 0 {
		level = 0
	}
	a.debugLevel = level
}

func (a *Archivist) SetLogger(logger interfaces.LoggerInterface) {
	if logger == nil {
		logger = log.New(os.Stdout, "", 0)
	}
	a.logger = logger
}
