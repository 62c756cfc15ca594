// Package logger is a thin, allocation-light layer over zerolog with a
// variadic key/value call style.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	log zerolog.Logger

	DurationAsString   = true
	RawFieldName       = "raw"
	DataFieldName      = "data"
	DurationFieldName  = "dur"
	DurationsFieldName = "durs"
	ErrorsFieldName    = "errors"

	EmptyMessage = ""
)

// ErrLevel is returned by SetLevel for an unknown level name.
var ErrLevel = errors.New("invalid log level")

func Log() *zerolog.Logger {
	return &log
}

// JSON Tag a byte slice as being a JSON document
type JSON []byte

type Builder func(event *zerolog.Event)

func init() {
	setCallerFormatter()

	// Use GCP cloud logging naming
	zerolog.LevelFieldName = "severity"
	zerolog.LevelFieldMarshalFunc = func(l zerolog.Level) string {
		switch l {
		case zerolog.TraceLevel:
			return "DEFAULT"
		case zerolog.DebugLevel:
			return "DEBUG"
		case zerolog.InfoLevel:
			return "INFO"
		case zerolog.NoLevel:
			return "NOTICE"
		case zerolog.WarnLevel:
			return "WARN"
		case zerolog.ErrorLevel:
			return "ERROR"
		case zerolog.PanicLevel:
			return "CRITICAL"
		case zerolog.FatalLevel:
			return "EMERGENCY"
		default:
			return "DEFAULT"
		}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	SetConsoleWriter()
}

func setCallerFormatter() {
	_, file, _, _ := runtime.Caller(0)
	prefix := path.Dir(path.Dir(file))
	if len(prefix) > 0 && prefix[len(prefix)-1] != os.PathSeparator {
		prefix += "/"
	}

	zerolog.CallerMarshalFunc = func(file string, line int) string {
		if prefix == "" {
			return fmt.Sprintf("%s:%d", file, line)
		}
		index := strings.Index(file, prefix)
		if index > -1 {
			file = file[index+len(prefix):]
		}
		return fmt.Sprintf("%s:%d", file, line)
	}
}

// SetLevel sets the global level from a config name.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "verbose", "verb", "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "notice", "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warning", "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "quiet", "silent":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		return errors.Wrapf(ErrLevel, "%q", level)
	}
	return nil
}

func SetWriter(w io.Writer) {
	log = zerolog.New(w)
}

func SetLogger(logger zerolog.Logger) {
	log = logger
}

func appendInterface(event *zerolog.Event, name string, value interface{}) {
	switch v := value.(type) {
	case time.Duration:
		if DurationAsString {
			event.Str(name, v.String())
		} else {
			event.Dur(name, v)
		}
	case JSON:
		event.RawJSON(name, v)
	case json.Marshaler:
		bytes, _ := v.MarshalJSON()
		event.RawJSON(name, bytes)
	default:
		event.Interface(name, value)
	}
}

func doLog(skip int, event *zerolog.Event, args []interface{}) {
	// disabled level
	if event == nil {
		return
	}
	event.Timestamp()
	event.Caller(skip)

	if len(args) == 0 {
		event.Msg(EmptyMessage)
		return
	}

	if err, ok := args[0].(error); ok {
		event.Err(err)
		args = args[1:]
	}

	for i := 0; i < len(args); i += 2 {
		key := args[i]
		if key == nil {
			// Shift by one
			i -= 1
			continue
		}

		switch k := key.(type) {
		case string:
			// Treat it like a format template?
			if strings.Contains(k, "%") {
				event.Msgf(k, args[i+1:]...)
				return
			}

			valueIndex := i + 1
			// Treat key as message?
			if valueIndex == len(args) {
				event.Msg(k)
				return
			}

			value := args[valueIndex]
			switch v := value.(type) {
			case string:
				event.Str(k, v)
			case time.Time:
				event.Time(k, v)
			case int:
				event.Int(k, v)
			case int32:
				event.Int32(k, v)
			case int64:
				event.Int64(k, v)
			case uint:
				event.Uint(k, v)
			case uint32:
				event.Uint32(k, v)
			case uint64:
				event.Uint64(k, v)
			case float64:
				event.Float64(k, v)
			case bool:
				event.Bool(k, v)
			case error:
				event.AnErr(k, v)
			case time.Duration:
				if DurationAsString {
					event.Str(k, v.String())
				} else {
					event.Dur(k, v)
				}
			case fmt.Stringer:
				event.Str(k, v.String())
			case JSON:
				event.RawJSON(k, v)
			case Builder:
				v(event)
			default:
				appendInterface(event, k, v)
			}
			continue

		case error:
			event.Err(k)
		case []error:
			event.Errs(ErrorsFieldName, k)
		case time.Duration:
			if DurationAsString {
				event.Str(DurationFieldName, k.String())
			} else {
				event.Dur(DurationFieldName, k)
			}
		case []byte:
			event.Bytes(RawFieldName, k)
		case JSON:
			event.RawJSON(DataFieldName, k)
		case Builder:
			k(event)
		}
		i -= 1
	}

	event.Msg(EmptyMessage)
}

func CustomLevel(level string) *zerolog.Event {
	l := log.Level(zerolog.NoLevel)
	return l.Log().Str(zerolog.LevelFieldName, level)
}

// Trace logs a message at level Trace on the standard logger.
func Trace(args ...interface{}) {
	doLog(2, log.Trace(), args)
}

// Debug logs a message at level Debug on the standard logger.
func Debug(args ...interface{}) {
	doLog(2, log.Debug(), args)
}

// Info logs a message at level Info on the standard logger.
func Info(args ...interface{}) {
	doLog(2, log.Info(), args)
}

// Notice logs a message at level Notice on the standard logger.
func Notice(args ...interface{}) {
	doLog(2, CustomLevel("NOTICE"), args)
}

// Warn logs a message at level Warn on the standard logger.
func Warn(args ...interface{}) {
	doLog(2, log.Warn(), args)
}

// WarnErr logs a message with err at level Warn on the standard logger.
func WarnErr(err error, args ...interface{}) {
	doLog(2, log.Warn().Err(err), args)
}

// Error logs a message at level Error on the standard logger.
func Error(err error, args ...interface{}) {
	doLog(2, log.Error().Err(err), args)
}

// Fatal logs a message at level Fatal on the standard logger then the process will exit with status set to 1.
func Fatal(err error, args ...interface{}) {
	doLog(2, log.Fatal().Err(err), args)
}
