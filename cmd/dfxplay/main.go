// Command dfxplay loads a drum font, maps it onto an audio device, and
// plays it back in response to MIDI note-on messages.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

func main() {
	if dsn := os.Getenv("DFX_SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, EnableTracing: false}); err != nil {
			fmt.Fprintf(os.Stderr, "dfxplay: sentry init failed: %v\n", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		if dsn := os.Getenv("DFX_SENTRY_DSN"); dsn != "" {
			sentry.CaptureException(err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
