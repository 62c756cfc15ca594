package server

import (
	"github.com/moontrade/prng/logger"
)

func logInit(conf Config) error {
	if err := logger.SetLevel(conf.LogLevel); err != nil {
		return err
	}
	if conf.LogJSON {
		logger.SetWriter(conf.LogOutput)
	} else {
		logger.SetConsoleOutput(conf.LogOutput, false)
	}
	logger.Warn("starting %s", versline(conf))
	return nil
}

// traceCommands logs every processed command at trace level until the
// observer is stopped.
func traceCommands(o Observer) {
	for msg := range o.C() {
		if msg.Err != nil {
			logger.Trace("addr", msg.Addr, "cmd", msg.Args[0], "elapsed", msg.Elapsed, "err", msg.Err.Error(), "command failed")
			continue
		}
		logger.Trace("addr", msg.Addr, "cmd", msg.Args[0], "elapsed", msg.Elapsed, "command")
	}
}
