package channel

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signal identifies a POSIX signal the lifecycle manager can install a
// handler for. Values are the raw signal numbers from golang.org/x/sys/unix
// rather than re-derived constants, so they match what the kernel actually
// delivers on the build's target platform.
type Signal int

const (
	SIGHUP  Signal = Signal(unix.SIGHUP)
	SIGINT  Signal = Signal(unix.SIGINT)
	SIGQUIT Signal = Signal(unix.SIGQUIT)
	SIGTERM Signal = Signal(unix.SIGTERM)
	SIGUSR1 Signal = Signal(unix.SIGUSR1)
	SIGUSR2 Signal = Signal(unix.SIGUSR2)
)

func (s Signal) osSignal() os.Signal { return syscall.Signal(s) }

func (s Signal) String() string { return syscall.Signal(s).String() }
