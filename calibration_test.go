package ms58xx

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

// PROM words shared by the tests: MS5611-style factory coefficients.
var testCoeffs = [6]uint16{0x9CBF, 0x903C, 0x5B15, 0x5AF2, 0x82B8, 0x6E98}

func TestCRC4(t *testing.T) {
	tests := []struct {
		name  string
		words [8]uint16
		want  uint8
	}{
		{"zero block", [8]uint16{}, 0},
		{
			"compact image",
			[8]uint16{0x0100, 0x9CBF, 0x903C, 0x5B15, 0x5AF2, 0x82B8, 0x6E98, 0x0000},
			14,
		},
		{
			"full image",
			[8]uint16{0x3132, 0x9CBF, 0x903C, 0x5B15, 0x5AF2, 0x82B8, 0x6E98, 0x5430},
			13,
		},
	}
	for _, tt := range tests {
		if got := crc4(tt.words[:]); got != tt.want {
			t.Errorf("%s: crc4() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

// Masking the CRC nibble out, validating it and putting it back must
// reproduce the original block bit for bit.
func TestCRC4MaskRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		words [8]uint16
		index int
		shift uint8
	}{
		{"crc in word 7", [8]uint16{0x3132, 0x9CBF, 0x903C, 0x5B15, 0x5AF2, 0x82B8, 0x6E98, 0x543D}, 7, 0},
		{"crc in word 0", [8]uint16{0xE100, 0x9CBF, 0x903C, 0x5B15, 0x5AF2, 0x82B8, 0x6E98, 0x0000}, 0, 12},
	}
	for _, tt := range tests {
		orig := tt.words
		got := uint8(tt.words[tt.index]>>tt.shift) & 0xF
		tt.words[tt.index] &^= 0xF << tt.shift

		if want := crc4(tt.words[:]); got != want {
			t.Errorf("%s: stored nibble %d, computed %d", tt.name, got, want)
		}

		tt.words[tt.index] |= uint16(got) << tt.shift
		if tt.words != orig {
			t.Errorf("%s: block not restored: %04x != %04x", tt.name, tt.words, orig)
		}
	}
}

// promOps returns the bus transactions for one PROM load. words holds the
// on-device image; n is the number of physically present words.
func promOps(addr uint16, words []uint16, n int) []i2ctest.IO {
	ops := []i2ctest.IO{{Addr: addr, W: []byte{cmdReset}, R: []byte{}}}
	for i := 0; i < n; i++ {
		ops = append(ops, i2ctest.IO{
			Addr: addr,
			W:    []byte{cmdReadPROM + uint8(2*i)},
			R:    []byte{uint8(words[i] >> 8), uint8(words[i])},
		})
	}
	return ops
}

func compactImage() []uint16 {
	return []uint16{0xE100, 0x9CBF, 0x903C, 0x5B15, 0x5AF2, 0x82B8, 0x6E98}
}

func TestReadPROMCompact(t *testing.T) {
	b := &i2ctest.Playback{Ops: promOps(Addr0, compactImage(), 7)}
	d, err := New(b, &Opts{Model: MS5805_02BA, OSR: 256})
	if err != nil {
		t.Fatal(err)
	}
	want := calibration{c1: 0x9CBF, c2: 0x903C, c3: 0x5B15, c4: 0x5AF2, c5: 0x82B8, c6: 0x6E98}
	if d.cal != want {
		t.Errorf("calibration = %+v, want %+v", d.cal, want)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadPROMC7C8Layouts(t *testing.T) {
	tests := []struct {
		name   string
		model  Model
		word0  uint16
		word7  uint16 // includes the CRC nibble in bits 3..0
		c7, c8 uint8
	}{
		// 6-bit C7 at bits 9..4, C8 from the 0xF700 field.
		{"MS5803-07BA", MS5803_07BA, 0x2222, 0x93D8, 61, 36},
		// 8-bit C7 at bits 11..4, no C8.
		{"MS5806-02BA", MS5806_02BA, 0x4631, 0x0FFD, 255, 0},
	}
	for _, tt := range tests {
		words := append([]uint16{tt.word0}, testCoeffs[:]...)
		words = append(words, tt.word7)

		b := &i2ctest.Playback{Ops: promOps(Addr0, words, 8)}
		d, err := New(b, &Opts{Model: tt.model, OSR: 256})
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if d.cal.c7 != tt.c7 || d.cal.c8 != tt.c8 {
			t.Errorf("%s: c7/c8 = %d/%d, want %d/%d", tt.name, d.cal.c7, d.cal.c8, tt.c7, tt.c8)
		}
		if err := b.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReadPROMCRCMismatch(t *testing.T) {
	img := compactImage()
	img[3] ^= 0x0004 // corrupt C3, stored CRC no longer matches

	b := &i2ctest.Playback{Ops: promOps(Addr0, img, 7)}
	_, err := New(b, &Opts{Model: MS5805_02BA, OSR: 256})
	if !errors.Is(err, ErrInvalidCRC) {
		t.Fatalf("New() = %v, want ErrInvalidCRC", err)
	}
}

// A failed reset must leave the previously loaded coefficients in place.
func TestResetFailureKeepsCalibration(t *testing.T) {
	bad := compactImage()
	bad[3] ^= 0x0004

	ops := promOps(Addr0, compactImage(), 7)
	ops = append(ops, promOps(Addr0, bad, 7)...)

	b := &i2ctest.Playback{Ops: ops}
	d, err := New(b, &Opts{Model: MS5805_02BA, OSR: 256})
	if err != nil {
		t.Fatal(err)
	}
	good := d.cal

	if err := d.Reset(); !errors.Is(err, ErrInvalidCRC) {
		t.Fatalf("Reset() = %v, want ErrInvalidCRC", err)
	}
	if d.cal != good {
		t.Errorf("calibration mutated by failed reset: %+v != %+v", d.cal, good)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadPROMBusError(t *testing.T) {
	// The reset command is accepted but the first PROM read fails.
	b := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: Addr0, W: []byte{cmdReset}, R: []byte{}}},
		DontPanic: true,
	}
	_, err := New(b, &Opts{Model: MS5805_02BA, OSR: 256})
	if err == nil {
		t.Fatal("New() succeeded with a failing bus")
	}
	if errors.Is(err, ErrInvalidCRC) {
		t.Fatalf("bus failure misreported as CRC failure: %v", err)
	}
}
