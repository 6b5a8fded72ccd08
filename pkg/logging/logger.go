package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger set up by InitLogger.
var Log *logrus.Logger = logrus.New()

func InitLogger(debug bool) {
	Log = New(os.Stdout, debug)
}

// New builds a logger writing to out. Debug mode uses the human readable
// text formatter, otherwise entries are emitted as JSON.
func New(out io.Writer, debug bool) *logrus.Logger {
	l := logrus.New()
	l.Out = out

	if debug {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

// Or returns l, falling back to the process-wide logger when l is nil.
func Or(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Log
	}
	return l
}
