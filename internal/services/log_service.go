package services

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"regexp"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ahmaruff/todos-api/internal/activitylog"
)

const (
	defaultLogLimit = 10
	tailChunkSize   = 4096
)

var logDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ErrLogsNotFound is returned when no activity log exists for a date
var ErrLogsNotFound = pkgerrors.New("logs not found")

// LogQuery selects entries of one day's activity log
type LogQuery struct {
	Date  string `form:"date"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
}

// LogService reads the activity log written by the activitylog sink
type LogService struct {
	dir string
	now func() time.Time
}

// NewLogService creates a LogService reading from dir
func NewLogService(dir string) *LogService {
	return &LogService{dir: dir, now: time.Now}
}

// Normalize fills in today, a limit of 10 and ascending order.
func (s *LogService) Normalize(q LogQuery) LogQuery {
	if q.Date == "" {
		q.Date = s.now().UTC().Format("2006-01-02")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLogLimit
	}
	if q.Sort != "desc" {
		q.Sort = "asc"
	}
	return q
}

// Tail returns the last q.Limit entries of the log for q.Date, oldest first
// unless q.Sort is "desc". Lines that are not JSON objects are skipped.
func (s *LogService) Tail(q LogQuery) ([]map[string]any, error) {
	q = s.Normalize(q)

	if !logDatePattern.MatchString(q.Date) {
		return nil, ErrLogsNotFound
	}
	day, err := time.Parse("2006-01-02", q.Date)
	if err != nil {
		return nil, ErrLogsNotFound
	}

	f, err := os.Open(activitylog.FileName(s.dir, day))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLogsNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to open log file")
	}
	defer f.Close()

	lines, err := lastLines(f, q.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read log file")
	}

	logs := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil || entry == nil {
			continue
		}
		logs = append(logs, entry)
	}

	if q.Sort == "desc" {
		for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
			logs[i], logs[j] = logs[j], logs[i]
		}
	}

	return logs, nil
}

// lastLines reads backwards from the end of f until limit non-blank lines
// are found, so large files are never loaded whole.
func lastLines(f io.ReadSeeker, limit int) ([][]byte, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	var (
		lines  [][]byte
		buffer []byte
		pos    = size
	)

	for pos > 0 && len(lines) < limit {
		chunk := int64(tailChunkSize)
		if pos < chunk {
			chunk = pos
		}
		pos -= chunk

		data := make([]byte, chunk)
		if _, err := f.Seek(pos, io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, err
		}
		buffer = append(data, buffer...)

		for len(lines) < limit {
			idx := bytes.LastIndexByte(buffer, '\n')
			if idx < 0 {
				break
			}
			if line := bytes.TrimSpace(buffer[idx+1:]); len(line) > 0 {
				lines = append([][]byte{line}, lines...)
			}
			buffer = buffer[:idx]
		}
	}

	if pos == 0 && len(lines) < limit {
		if line := bytes.TrimSpace(buffer); len(line) > 0 {
			lines = append([][]byte{line}, lines...)
		}
	}

	return lines, nil
}
