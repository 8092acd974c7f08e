package runner

import (
	"time"

	"golang.org/x/sys/unix"
)

// userTime returns the process's user CPU time so far.
func userTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return time.Duration(ru.Utime.Sec)*time.Second +
		time.Duration(ru.Utime.Usec)*time.Microsecond
}
