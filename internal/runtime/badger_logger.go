package runtime

import "go.uber.org/zap"

// badgerLogger routes badger's logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func newBadgerLogger(logger *zap.Logger) *badgerLogger {
	return &badgerLogger{s: logger.Named("badger").Sugar()}
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }

// Infof logs at debug level.
func (l *badgerLogger) Infof(format string, args ...interface{})  { l.s.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
