package cmd

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ANSI color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

var titleCaser = cases.Title(language.English)

// PerformanceTimer records named event durations for test command summaries
type PerformanceTimer struct {
	created   time.Time
	starts    map[string]time.Time
	durations map[string]time.Duration
}

// NewPerformanceTimer creates a timer ready to record events
func NewPerformanceTimer() *PerformanceTimer {
	return &PerformanceTimer{
		created:   time.Now(),
		starts:    make(map[string]time.Time),
		durations: make(map[string]time.Duration),
	}
}

// StartEvent marks the start of a named event
func (t *PerformanceTimer) StartEvent(name string) {
	t.starts[name] = time.Now()
}

// EndEvent records the duration of a named event and returns it. Repeated
// calls return the duration recorded first.
func (t *PerformanceTimer) EndEvent(name string) time.Duration {
	if duration, ok := t.durations[name]; ok {
		return duration
	}

	start, ok := t.starts[name]
	if !ok {
		return 0
	}

	duration := time.Since(start)
	t.durations[name] = duration
	return duration
}

// GetDuration returns the recorded duration for a named event
func (t *PerformanceTimer) GetDuration(name string) time.Duration {
	return t.durations[name]
}

// GetTotalDuration returns the elapsed time since the timer was created
func (t *PerformanceTimer) GetTotalDuration() time.Duration {
	return time.Since(t.created)
}

func printStep(num int, title string) {
	fmt.Printf("%s%s%d%s %s%s%s\n", ColorBold, ColorPurple, num, ColorReset, ColorWhite, title, ColorReset)
}

func printSectionHeader(title string) {
	fmt.Printf("%s%s%s%s\n", ColorBold, ColorBlue, title, ColorReset)
}

func printSuccess(format string, args ...any) {
	fmt.Printf("   %s✓%s %s\n", ColorGreen, ColorReset, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Printf("   %s⚠%s %s\n", ColorYellow, ColorReset, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Printf("   %s✗%s %s\n", ColorRed, ColorReset, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("   %s•%s %s\n", ColorCyan, ColorReset, fmt.Sprintf(format, args...))
}

func printResult(name string, success bool) {
	if success {
		fmt.Printf("%-20s %s✓ PASS%s\n", name+":", ColorGreen, ColorReset)
	} else {
		fmt.Printf("%-20s %s✗ FAIL%s\n", name+":", ColorRed, ColorReset)
	}
}
