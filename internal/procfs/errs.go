package procfs

import "errors"

var (
	// ErrMalformedStat indicates a pid stat line that could not be parsed.
	ErrMalformedStat = errors.New("procfs: malformed stat")

	// ErrShortStat indicates a pid stat line with fewer fields than expected.
	ErrShortStat = errors.New("procfs: short stat")

	// ErrNoCPULine indicates the system stat file had no aggregate cpu line.
	ErrNoCPULine = errors.New("procfs: no cpu line")

	// ErrMalformedUptime indicates the uptime file could not be parsed.
	ErrMalformedUptime = errors.New("procfs: malformed uptime")
)
