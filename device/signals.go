package device

import (
	"fmt"
	"runtime"
	"time"
)

// Signals are the stable environment values mixed into the fallback digest.
// They must not change between runs on the same device.
type Signals struct {
	UserAgent             string
	ScreenWidth           int
	ScreenHeight          int
	TimezoneOffsetMinutes int
}

// HostSignals derives signals from the running process environment.
func HostSignals() Signals {
	_, offsetSeconds := time.Now().Zone()
	return Signals{
		UserAgent:             fmt.Sprintf("qr-attendance-client (%s; %s)", runtime.GOOS, runtime.GOARCH),
		TimezoneOffsetMinutes: offsetSeconds / 60,
	}
}
