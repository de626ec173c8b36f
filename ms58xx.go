// Package ms58xx controls a MEAS MS58xx pressure/temperature sensor
// (MS5803/MS5805/MS5806/MS5837 families) over I²C.
//
// The sensor carries factory calibration in an on-chip PROM protected by a
// 4-bit CRC. Raw 24-bit ADC conversions are turned into compensated
// temperature (centi-°C) and pressure (model-native counts) with the
// second-order fixed-point algorithm from the datasheets.
package ms58xx

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

var (
	// ErrInvalidCRC means the calibration PROM failed its checksum; the
	// device is absent or not responding correctly.
	ErrInvalidCRC = errors.New("calibration PROM checksum mismatch")
	// ErrInvalidOSR means the requested oversampling ratio is not one of
	// 256..8192, or 8192 was requested on a model that lacks it.
	ErrInvalidOSR = errors.New("unsupported oversampling ratio")
	// ErrInvalidConfig means the model/address combination is not legal.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedOp is returned by Control for unrecognized requests.
	ErrUnsupportedOp = errors.New("unsupported control request")
)

// Opts holds the configuration options for the sensor
type Opts struct {
	Model Model
	// Addr is the 7-bit I2C address. Zero selects Addr0 (0x76). Addr1 is
	// rejected on models whose CSB pin is fixed.
	Addr uint16
	// OSR is the initial oversampling ratio, one of 256, 512, 1024, 2048,
	// 4096 or 8192 (MS5805-02BA/MS5837-30BA only). Zero selects 4096.
	OSR uint16
	// Supply is the sensor supply voltage, used only by the MS5806-02BA
	// pressure post-correction. Zero selects 3V.
	Supply physic.ElectricPotential
}

func DefaultOpts(m Model) *Opts {
	return &Opts{Model: m, Addr: Addr0, OSR: 4096, Supply: 3 * physic.Volt}
}

// New opens a handle to the sensor on the given bus, loads the calibration
// PROM and validates its CRC.
func New(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, fmt.Errorf("ms58xx: %w: missing options", ErrInvalidConfig)
	}

	prm, ok := modelParams[opts.Model]
	if !ok {
		return nil, fmt.Errorf("ms58xx: %w: unknown model %d", ErrInvalidConfig, int(opts.Model))
	}

	addr := opts.Addr
	if addr == 0 {
		addr = Addr0
	}
	if addr != Addr0 && !(addr == Addr1 && prm.altAddr) {
		return nil, fmt.Errorf("ms58xx: %w: address %#02x not supported by %s", ErrInvalidConfig, addr, opts.Model)
	}

	supply := opts.Supply
	if supply == 0 {
		supply = 3 * physic.Volt
	}

	d := &Dev{
		d:        &i2c.Dev{Bus: b, Addr: addr},
		model:    opts.Model,
		prm:      prm,
		supplyDV: int64(supply / (100 * physic.MilliVolt)),
	}

	osr := opts.OSR
	if osr == 0 {
		osr = 4096
	}
	if err := d.setOSR(osr); err != nil {
		return nil, d.wrap(err)
	}

	if err := d.reset(); err != nil {
		return nil, d.wrap(err)
	}

	return d, nil
}

// Dev is a handle to one MS58xx sensor. Methods serialize on an internal
// mutex; the bus transactions and settle waits themselves block the calling
// goroutine.
type Dev struct {
	d        *i2c.Dev
	model    Model
	prm      params
	supplyDV int64 // supply voltage in decivolts

	mu    sync.Mutex
	osr   uint8 // ratio selector field folded into conversion commands
	delay time.Duration
	cal   calibration
	temp  int32 // centi-degrees Celsius
	press int32 // model-native pressure counts

	stop chan struct{}
	wg   sync.WaitGroup
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s}", d.model, d.d)
}

// Reset issues the device reset command and reloads the calibration
// coefficients from PROM. On failure the previously loaded coefficients are
// kept untouched.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.reset(); err != nil {
		return d.wrap(err)
	}
	return nil
}

func (d *Dev) reset() error {
	if err := d.d.Tx([]byte{cmdReset}, nil); err != nil {
		return err
	}
	cal, err := d.readPROM()
	if err != nil {
		return err
	}
	d.cal = cal
	return nil
}

// SetOversampling reconfigures the ADC oversampling ratio and the matching
// conversion settle delay. An invalid ratio leaves the previous
// configuration in place.
func (d *Dev) SetOversampling(ratio uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setOSR(ratio); err != nil {
		return d.wrap(err)
	}
	return nil
}

var osrDelay = map[uint16]time.Duration{
	256:  600 * time.Microsecond,
	512:  1170 * time.Microsecond,
	1024: 2280 * time.Microsecond,
	2048: 4540 * time.Microsecond,
	4096: 9040 * time.Microsecond,
	8192: 18080 * time.Microsecond,
}

func (d *Dev) setOSR(ratio uint16) error {
	delay, ok := osrDelay[ratio]
	if !ok || (ratio == maxOversampling && !d.prm.osrMax) {
		return fmt.Errorf("%w: %d", ErrInvalidOSR, ratio)
	}
	// Selector field and delay change together or not at all.
	d.osr = uint8((ratio/256 - 1) * 2)
	d.delay = delay
	return nil
}

// Measure runs one pressure and one temperature conversion and stores the
// compensated result. The stored values are only replaced when the whole
// sequence succeeds.
func (d *Dev) Measure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.measure(); err != nil {
		return d.wrap(err)
	}
	return nil
}

func (d *Dev) measure() error {
	rawPress, err := d.convert(cmdConvertD1)
	if err != nil {
		return err
	}
	rawTemp, err := d.convert(cmdConvertD2)
	if err != nil {
		return err
	}
	d.temp, d.press = compensate(&d.prm, &d.cal, rawPress, rawTemp, d.supplyDV)
	return nil
}

// convert triggers one ADC conversion, blocks for the settle delay, then
// reads back the 24-bit result.
func (d *Dev) convert(cmd uint8) (uint32, error) {
	if err := d.d.Tx([]byte{cmd | d.osr}, nil); err != nil {
		return 0, err
	}

	// Reading earlier than this returns an under-settled conversion, so the
	// wait is a fixed blocking sleep with no shorter deadline.
	time.Sleep(d.delay)

	var buf [3]byte
	if err := d.d.Tx([]byte{cmdReadADC}, buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2]), nil
}

// Temperature returns the last measured temperature in centi-degrees
// Celsius (2007 = 20.07 °C). Zero until the first successful Measure.
func (d *Dev) Temperature() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.temp
}

// Pressure returns the last measured pressure in the model's native counts
// (0.01 mbar or 0.1 mbar per count depending on the model). Zero until the
// first successful Measure.
func (d *Dev) Pressure() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.press
}

// Sense measures once and reports the result in SI units.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return d.wrap(errors.New("already sensing continuously"))
	}

	if err := d.measure(); err != nil {
		return d.wrap(err)
	}
	d.fill(e)
	return nil
}

func (d *Dev) fill(e *physic.Env) {
	e.Temperature = physic.Temperature(d.temp)*10*physic.MilliCelsius + physic.ZeroCelsius
	e.Pressure = physic.Pressure(d.press) * d.prm.unit
}

// SenseContinuous returns measurements on a continuous basis.
//
// The application must call Halt() to stop the sensing when done to stop the
// sensor and close the channel.
//
// It's the responsibility of the caller to retrieve the values from the
// channel as fast as possible, otherwise the interval may not be respected.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
		d.wg.Wait()
	}

	sensing := make(chan physic.Env)
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		d.sensingContinuous(interval, sensing, d.stop)
	}()
	return sensing, nil
}

func (d *Dev) sensingContinuous(interval time.Duration, sensing chan<- physic.Env, stop <-chan struct{}) {
	// One pressure plus one temperature conversion per reading.
	if min := 2 * d.delay; interval < min {
		interval = min
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		e := physic.Env{}
		d.mu.Lock()
		err := d.measure()
		if err == nil {
			d.fill(&e)
		}
		d.mu.Unlock()
		if err != nil {
			return
		}
		select {
		case sensing <- e:
		case <-stop:
			return
		}
		select {
		case <-stop:
			return
		case <-t.C:
		}
	}
}

// Precision reports the resolution of the values returned by Sense.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Pressure = d.prm.unit
}

// Halt stops the continuous sensing loop as initiated by SenseContinuous().
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	d.wg.Wait()

	return nil
}

func (d *Dev) wrap(err error) error {
	return fmt.Errorf("%s: %w", d.model, err)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
