package reembed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_ReportsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 100, 25)
	p.Start()

	p.Update(10)
	assert.Empty(t, buf.String())

	p.Update(25)
	assert.Contains(t, buf.String(), "25/100")
	assert.Contains(t, buf.String(), "25.0%")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 50, 10)
	p.Start()
	p.Update(30)
	p.Finish()

	out := buf.String()
	assert.Contains(t, out, "50/50")
	assert.Contains(t, out, "100.0%")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 10, 1)
	p.Start()
	p.Update(99)
	assert.Contains(t, buf.String(), "10/10")
}

func TestProgressTracker_IgnoresUpdatesBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 10, 1)
	p.Update(5)
	assert.Empty(t, buf.String())
	assert.Zero(t, p.Elapsed())
}
