package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger логгер сервиса с printf-style API поверх logrus
// Если указан файл, логи дублируются в stdout и в файл с ротацией
type Logger struct {
	log    *logrus.Logger
	closer io.Closer
}

// New создает логгер. file может быть пустым - тогда пишем только в stdout
func New(file string, level string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logger: invalid level %q: %w", level, err)
	}

	l := logrus.New()
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	result := &Logger{log: l}

	if file == "" {
		l.SetOutput(os.Stdout)
		return result, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // МБ
		MaxBackups: 5,
		MaxAge:     30, // дни
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(os.Stdout, rotator))
	result.closer = rotator

	return result, nil
}

// NewNop создает логгер, который ничего не пишет (для тестов)
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{log: l}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.log.Warnf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

// Fatal логирует ошибку и завершает процесс
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.log.Fatalf(format, v...)
}

// Close закрывает файл логов (если он был открыт)
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
