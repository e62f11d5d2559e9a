package logflags

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var mem = false
var terminal = false
var target = false

var logOut io.WriteCloser

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Formatter = &textFormatter{}
	if logOut != nil {
		logger.Logger.Out = logOut
	}
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// Mem returns true if the mem package should log allocations, releases
// and buffered write progress.
func Mem() bool {
	return mem
}

// MemLogger returns a logger for the mem package.
func MemLogger() *logrus.Entry {
	return makeLogger(mem, logrus.Fields{"layer": "mem"})
}

// Terminal returns true if the terminal should log the commands it runs.
func Terminal() bool {
	return terminal
}

// TerminalLogger returns a logger for the terminal package.
func TerminalLogger() *logrus.Entry {
	return makeLogger(terminal, logrus.Fields{"layer": "terminal"})
}

// Target returns true if handle acquisition should be logged.
func Target() bool {
	return target
}

// TargetLogger returns a logger for the target package.
func TargetLogger() *logrus.Entry {
	return makeLogger(target, logrus.Fields{"layer": "target"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets the logging flags based on the contents of logstr.
// If logDest is not empty logs are redirected to the file descriptor or
// file path specified by logDest.
func Setup(logFlag bool, logstr string, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "memwar-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %v", err)
			}
			logOut = fh
		}
	}
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(ioutil.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "mem"
	}
	v := strings.Split(logstr, ",")
	for _, logcmd := range v {
		switch logcmd {
		case "mem":
			mem = true
		case "terminal":
			terminal = true
		case "target":
			target = true
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown log output value %q\n", logcmd)
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
		logOut = nil
	}
}

// textFormatter is a simplified version of logrus.TextFormatter that
// doesn't make logs unreadable when they are output to a text file or to a
// terminal that doesn't support colors.
type textFormatter struct {
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *strings.Builder = &strings.Builder{}
	if entry.Buffer != nil {
		b.Grow(entry.Buffer.Len())
	}

	fmt.Fprintf(b, "%s %s ", entry.Time.Format("2006-01-02T15:04:05Z07:00"), entry.Level)
	if layer, ok := entry.Data["layer"]; ok {
		fmt.Fprintf(b, "%v ", layer)
	}
	for k, v := range entry.Data {
		if k == "layer" {
			continue
		}
		fmt.Fprintf(b, "%s=%v ", k, v)
	}
	b.WriteString(entry.Message)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
