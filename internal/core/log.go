package core

import (
	"time"

	"github.com/inoxlang/tickscript/internal/hack"
	"github.com/rs/zerolog"
)

const (
	SOURCE_LOG_FIELD_NAME        = "src"
	QUOTED_SOURCE_LOG_FIELD_NAME = `"src"`
	PROGRAM_LOG_FIELD_NAME       = "program"
	WORLD_LOG_FIELD_NAME         = "world"

	PROGRAMS_LOG_SRC = "/programs"
	SCRIPT_LOG_SRC   = "/script"
)

func init() {
	zerolog.DurationFieldInteger = false
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.MessageFieldName = "msg"
	zerolog.LevelFieldName = "lvl"
	zerolog.TimestampFieldName = "tm"
}

func ChildLoggerForSource(logger zerolog.Logger, src string) zerolog.Logger {
	logger = logger.With().Logger() //copy the logger
	return hack.AddReplaceLoggerStringFieldValue(logger, SOURCE_LOG_FIELD_NAME, src)
}

func childLoggerForProgram(managerLogger zerolog.Logger, programName string) zerolog.Logger {
	return managerLogger.With().Str(PROGRAM_LOG_FIELD_NAME, programName).Logger()
}

// scriptLogger returns the logger used by the log builtin: the program's logger with the source replaced.
func scriptLogger(p *Program) zerolog.Logger {
	return ChildLoggerForSource(p.logger, SCRIPT_LOG_SRC)
}
