package debugshell

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestOpenPrintsFailureBannerAndExitsWithShell(t *testing.T) {
	stdinRead, stdinWrite, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer stdinRead.Close()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- Open(context.Background(), "app", "", []byte("compile error: undefined symbol\n"), stdinRead, &out)
	}()

	// stdinRead is a pipe, not a terminal, so Open must skip raw-mode
	// setup and simply forward bytes written here to the shell.
	stdinWrite.WriteString("exit\n")
	stdinWrite.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("Open did not return after the shell exited")
	}

	if !strings.Contains(out.String(), `target "app" failed`) {
		t.Fatalf("expected the failure banner in output, got: %q", out.String())
	}
	if !strings.Contains(out.String(), "undefined symbol") {
		t.Fatalf("expected the captured failure output to be echoed, got: %q", out.String())
	}
}
