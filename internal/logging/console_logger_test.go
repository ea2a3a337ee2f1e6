package logging

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newTestLogger(verbose bool) (*ConsoleLogger, *bytes.Buffer) {
	color.NoColor = true
	buf := new(bytes.Buffer)
	return NewConsoleLoggerTo(buf, verbose), buf
}

func TestConsoleLogger_Levels(t *testing.T) {
	logger, buf := newTestLogger(false)

	logger.Info("plain %d", 1)
	logger.Success("inserted %d rows", 3)
	logger.Warn("careful")
	logger.Error("failed: %s", "boom")

	assert.Equal(t, "plain 1\n✅ inserted 3 rows\n⚠️  careful\n❌ failed: boom\n", buf.String())
}

func TestConsoleLogger_Verbose(t *testing.T) {
	logger, buf := newTestLogger(false)
	logger.Verbose("hidden")
	assert.Empty(t, buf.String())

	logger, buf = newTestLogger(true)
	logger.Verbose("shown %s", "here")
	assert.Equal(t, "🔍 shown here\n", buf.String())
}

func TestConsoleLogger_PercentWithoutArgs(t *testing.T) {
	logger, buf := newTestLogger(false)
	info := logger.Info // method value: the literal % is intentional here
	info("100% done")
	assert.Equal(t, "100% done\n", buf.String())
}

func TestConsoleLogger_Concurrent(t *testing.T) {
	logger, buf := newTestLogger(false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("%s", fmt.Sprintf("line %d", n))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 50)
}

func TestNullLogger(t *testing.T) {
	var logger Logger = NewNullLogger()
	assert.NotPanics(t, func() {
		logger.Info("x")
		logger.Error("y %d", 1)
	})
}
