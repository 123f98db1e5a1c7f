package errreport

import (
	"errors"
	"testing"
	"time"
)

func TestInit_EmptyDSNDisables(t *testing.T) {
	if err := Init("", "test"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Enabled() {
		t.Error("Expected reporting to stay disabled without a DSN")
	}

	// Must not panic or block while disabled.
	Capture(errors.New("boom"), map[string]string{"step": "poster"})
	Capture(nil, nil)
	Flush(10 * time.Millisecond)
}

func TestInit_InvalidDSN(t *testing.T) {
	if err := Init("not a dsn", "test"); err == nil {
		t.Error("Expected an invalid DSN to be rejected")
	}
	if Enabled() {
		t.Error("Expected reporting to stay disabled after a failed Init")
	}
}
