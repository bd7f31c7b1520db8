package uploader

import (
	"context"
	"testing"

	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

func TestUploadPreferredPortFirst(t *testing.T) {
	tc := &toolchain.Fake{
		UploadFunc: func(sketchPath, fqbn, port string) (bool, string) {
			return port == "/dev/ttyACM0", ""
		},
	}
	u := New(tc, func() ([]string, error) {
		t.Error("lister called although preferred port succeeded")
		return nil, nil
	}, nil)

	port, err := u.Upload(context.Background(), "blink.ino", "arduino:avr:uno", "/dev/ttyACM0")
	if err != nil {
		t.Fatal(err)
	}
	if port != "/dev/ttyACM0" {
		t.Errorf("port = %q", port)
	}
}

func TestUploadFallsBackAcrossPorts(t *testing.T) {
	tc := &toolchain.Fake{
		UploadFunc: func(sketchPath, fqbn, port string) (bool, string) {
			return port == "/dev/ttyUSB1", "output"
		},
	}
	u := New(tc, func() ([]string, error) {
		return []string{"/dev/ttyACM0", "/dev/ttyUSB0", "/dev/ttyUSB1"}, nil
	}, nil)

	port, err := u.Upload(context.Background(), "blink.ino", "arduino:avr:uno", "/dev/ttyACM0")
	if err != nil {
		t.Fatal(err)
	}
	if port != "/dev/ttyUSB1" {
		t.Errorf("port = %q", port)
	}

	// The preferred port must not be retried during fallback.
	if calls := tc.CallsMatching("upload /dev/ttyACM0"); len(calls) != 1 {
		t.Errorf("preferred port tried %d times, want 1", len(calls))
	}
}

func TestUploadAllPortsFail(t *testing.T) {
	tc := &toolchain.Fake{
		UploadFunc: func(sketchPath, fqbn, port string) (bool, string) {
			return false, "avrdude: stk500_recv(): programmer is not responding"
		},
	}
	u := New(tc, func() ([]string, error) {
		return []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, nil
	}, nil)

	if _, err := u.Upload(context.Background(), "blink.ino", "arduino:avr:uno", ""); err == nil {
		t.Fatal("Upload succeeded with no working port")
	}
	if calls := tc.CallsMatching("upload"); len(calls) != 2 {
		t.Errorf("upload attempts = %d, want 2 (each port once)", len(calls))
	}
}
