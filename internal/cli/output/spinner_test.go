package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinner_StartStop(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Loading")
	s.interval = 10 * time.Millisecond

	s.Start()
	s.Start()
	time.Sleep(40 * time.Millisecond)
	s.Stop()
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Loading") {
		t.Errorf("output = %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("line not cleared: %q", out)
	}
}

func TestSpinner_SuccessAndFail(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Loading")
	s.Start()
	s.Success("done")
	if !strings.HasSuffix(buf.String(), "✓ done\n") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	s = NewSpinner(&buf, "Loading")
	s.Start()
	s.Fail("boom")
	if !strings.HasSuffix(buf.String(), "✗ boom\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "x")
	s.Stop()
	s.Start() // ignored after stop
	time.Sleep(20 * time.Millisecond)
	if strings.Contains(buf.String(), "x") {
		t.Errorf("spinner animated after Stop: %q", buf.String())
	}
}
