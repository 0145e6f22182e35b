package utils

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	verbose bool
	stdout  io.Writer = os.Stdout
	stderr  io.Writer = os.Stderr

	stepColor    = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
)

// SetVerbose toggles Debug output.
func SetVerbose(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = enabled
}

// SetNoColor disables ANSI colours on every writer.
func SetNoColor(disabled bool) {
	color.NoColor = disabled
}

// SetOutput redirects progress and diagnostic output. Passing nil keeps the
// current writer.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// Step announces the start of a pipeline step.
func Step(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	stepColor.Fprintf(stdout, "🔧 "+format+"\n", args...)
}

func Info(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(stdout, format+"\n", args...)
}

// Debug prints only when verbose output is enabled.
func Debug(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	fmt.Fprintf(stdout, "   "+format+"\n", args...)
}

func Success(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	successColor.Fprintf(stdout, "✅ "+format+"\n", args...)
}

func Warn(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	warnColor.Fprintf(stderr, "⚠️  "+format+"\n", args...)
}

// Fail writes a one-line diagnostic to stderr.
func Fail(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	failColor.Fprintf(stderr, "❌ "+format+"\n", args...)
}
