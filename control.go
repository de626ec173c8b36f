package ms58xx

import "fmt"

// Op is a control request code, for hosts that expose the sensor through a
// request/response control plane (character device shims, RPC bridges).
type Op uint8

const (
	// OpMeasure refreshes the stored temperature and pressure. No argument,
	// no result.
	OpMeasure Op = iota
	// OpTemperature returns the stored temperature in centi-°C.
	OpTemperature
	// OpPressure returns the stored pressure in native counts.
	OpPressure
	// OpReset reloads the calibration from PROM. No argument, no result.
	OpReset
	// OpOversampling sets the oversampling ratio given as argument.
	OpOversampling
)

// Control executes one control request. Unrecognized codes fail with
// ErrUnsupportedOp, distinct from bus and validation errors.
func (d *Dev) Control(op Op, arg int32) (int32, error) {
	switch op {
	case OpMeasure:
		return 0, d.Measure()
	case OpTemperature:
		return d.Temperature(), nil
	case OpPressure:
		return d.Pressure(), nil
	case OpReset:
		return 0, d.Reset()
	case OpOversampling:
		return 0, d.SetOversampling(uint16(arg))
	}
	return 0, d.wrap(fmt.Errorf("%w: %d", ErrUnsupportedOp, op))
}
