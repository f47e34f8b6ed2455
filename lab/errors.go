package lab

import "errors"

var (
	// ErrUnknownParticle indicates a preset name missing from the config.
	ErrUnknownParticle = errors.New("lab: unknown particle")

	// ErrNoScanInterval indicates a tune request with nothing to scan.
	ErrNoScanInterval = errors.New("lab: no scan interval")
)
