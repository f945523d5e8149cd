package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	ginModeEnv  = "GIN_MODE"
	logLevelEnv = "LOG_LEVEL"
)

// New инициализирует логгер. В продакшн окружении (GIN_MODE=release) пишет JSON с уровнем info, иначе текст
// с уровнем debug. Уровень можно переопределить переменной LOG_LEVEL.
func New(output io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	l.SetLevel(logrus.InfoLevel)

	// перезаписываем ряд настроек для окружений отличных от продакшн
	if os.Getenv(ginModeEnv) != "release" {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if raw := os.Getenv(logLevelEnv); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			l.WithError(err).Warnf("ignoring %s", logLevelEnv)
			return l
		}
		l.SetLevel(level)
	}

	return l
}
