package activitylog

import (
	"time"

	"go.uber.org/zap"
)

// Options carries the application metadata stamped on every entry.
type Options struct {
	AppName    string
	AppVersion string
	AppEnv     string
	// Location is used for the local timestamp. Nil means Asia/Jakarta.
	Location *time.Location
	// Console marks a process running outside the HTTP request cycle, so
	// entries without a request snapshot are attributed to the command line.
	Console bool
}

// Logger creates activity entries and hands them to a zap sink.
type Logger struct {
	sink *zap.Logger
	opts Options
	now  func() time.Time
}

func New(sink *zap.Logger, opts Options) *Logger {
	if sink == nil {
		sink = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = DefaultLocation()
	}
	return &Logger{sink: sink, opts: opts, now: time.Now}
}

// NewNop returns a Logger that discards every entry.
func NewNop() *Logger {
	return New(zap.NewNop(), Options{})
}

// DefaultLocation is Asia/Jakarta, or a fixed UTC+7 zone when tzdata is missing.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// LoadLocation resolves a timezone name, falling back to DefaultLocation.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return DefaultLocation()
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DefaultLocation()
	}
	return loc
}

// Production reports whether traces must be left out of entries.
func (l *Logger) Production() bool {
	return l.opts.AppEnv == "production"
}

// Console reports whether the logger was built for a command-line process.
func (l *Logger) Console() bool {
	return l.opts.Console
}

// WithConsole returns a copy of l attributing context-less entries to the CLI.
func (l *Logger) WithConsole() *Logger {
	clone := *l
	clone.opts.Console = true
	return &clone
}

func (l *Logger) Sync() error {
	return l.sink.Sync()
}

// Entry starts a new activity entry with default meta values.
func (l *Logger) Entry() *Entry {
	return newEntry(l)
}
