package activitylog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	filePrefix = "activity-"
	fileSuffix = ".log"
	dayLayout  = "2006-01-02"
)

// FileName returns the activity log file holding entries of day.
func FileName(dir string, day time.Time) string {
	return filepath.Join(dir, filePrefix+day.UTC().Format(dayLayout)+fileSuffix)
}

// DailyFile is a zapcore.WriteSyncer that appends to one file per UTC day.
type DailyFile struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	day  string
	file *os.File
}

func NewDailyFile(dir string) *DailyFile {
	return &DailyFile{dir: dir, now: time.Now}
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	day := now.UTC().Format(dayLayout)
	if d.file == nil || day != d.day {
		if err := d.rotate(now, day); err != nil {
			return 0, err
		}
	}

	return d.file.Write(p)
}

func (d *DailyFile) rotate(now time.Time, day string) error {
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(FileName(d.dir, now), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	d.file = f
	d.day = day
	return nil
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// NewSink builds the zap logger that writes one JSON object per line to w.
func NewSink(w zapcore.WriteSyncer) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "logged_at"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), w, zapcore.DebugLevel)
	return zap.New(core)
}
