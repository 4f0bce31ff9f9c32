package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger writes INFO lines to stdout and ERROR lines to stderr.
// With level ERROR the info output is discarded.
type Logger struct {
	info *log.Logger
	err  *log.Logger
}

func New(level string) *Logger {
	var infoOut io.Writer = os.Stdout
	if strings.EqualFold(level, "ERROR") {
		infoOut = io.Discard
	}
	return NewWithWriters(infoOut, os.Stderr)
}

func NewWithWriters(info, err io.Writer) *Logger {
	return &Logger{
		info: log.New(info, "INFO\t", log.Ldate|log.Ltime),
		err:  log.New(err, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.info.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.err.Output(2, fmt.Sprintf(format, args...))
}
