/*
   Copyright 2026 GitHub Inc.
         See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package base

import (
	"github.com/openark/golib/log"
)

// Logger is what extraction components log through
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{}) error
	Errorf(format string, args ...interface{}) error
}

type simpleLogger struct{}

func NewDefaultLogger() *simpleLogger {
	return &simpleLogger{}
}

func (*simpleLogger) Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func (*simpleLogger) Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func (*simpleLogger) Warningf(format string, args ...interface{}) error {
	return log.Warningf(format, args...)
}

func (*simpleLogger) Errorf(format string, args ...interface{}) error {
	return log.Errorf(format, args...)
}
