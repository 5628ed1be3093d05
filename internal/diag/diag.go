package diag

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
)

// Setup directs glog output to files in logDir at the given verbosity. Flags
// already set on the command line win.
func Setup(logDir string, verbosity int) error {
	if strings.TrimSpace(logDir) == "" {
		return fmt.Errorf("log dir is empty")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	settings := []struct{ name, value string }{
		{"log_dir", logDir},
		{"logtostderr", "false"},
		{"v", fmt.Sprint(verbosity)},
	}
	for _, s := range settings {
		if explicit[s.name] {
			continue
		}
		if err := flag.Set(s.name, s.value); err != nil {
			return fmt.Errorf("set glog flag %s: %w", s.name, err)
		}
	}
	glog.Infof("[diag]logging to %s", logDir)
	return nil
}

// Tail returns the last maxLines lines of the file at path, or every line
// when maxLines <= 0. A missing file yields no lines.
func Tail(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Severity is a glog line severity.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a name such as "warning" or "W" to a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "I", "INFO":
		return SeverityInfo, nil
	case "W", "WARN", "WARNING":
		return SeverityWarning, nil
	case "E", "ERROR":
		return SeverityError, nil
	case "F", "FATAL":
		return SeverityFatal, nil
	}
	return SeverityUnknown, fmt.Errorf("unknown severity %q", name)
}

// LineSeverity reads the severity from a glog header such as
// "W1019 10:11:12.123456 4242 image.go:88] ...". Continuation lines and
// the file preamble are SeverityUnknown.
func LineSeverity(line string) Severity {
	if len(line) < 5 || line[1] < '0' || line[1] > '9' {
		return SeverityUnknown
	}
	switch line[0] {
	case 'I':
		return SeverityInfo
	case 'W':
		return SeverityWarning
	case 'E':
		return SeverityError
	case 'F':
		return SeverityFatal
	}
	return SeverityUnknown
}

// Filter keeps the lines at or above min. Lines without a header inherit the
// severity of the line before them.
func Filter(lines []string, min Severity) []string {
	out := make([]string, 0, len(lines))
	current := SeverityUnknown
	for _, line := range lines {
		if sev := LineSeverity(line); sev != SeverityUnknown {
			current = sev
		}
		if current >= min {
			out = append(out, line)
		}
	}
	return out
}
