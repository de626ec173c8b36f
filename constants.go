package ms58xx

import "periph.io/x/conn/v3/physic"

// Model selects the sensor part number. Every model-dependent constant
// (coefficient scaling, second-order tables, PROM layout, legal addresses)
// is derived from it at construction time.
type Model int

const (
	MS5803_02BA Model = iota
	MS5803_05BA
	MS5803_07BA
	MS5803_14BA
	MS5803_30BA
	MS5805_02BA
	MS5806_02BA
	MS5837_30BA
)

func (m Model) String() string {
	switch m {
	case MS5803_02BA:
		return "MS5803-02BA"
	case MS5803_05BA:
		return "MS5803-05BA"
	case MS5803_07BA:
		return "MS5803-07BA"
	case MS5803_14BA:
		return "MS5803-14BA"
	case MS5803_30BA:
		return "MS5803-30BA"
	case MS5805_02BA:
		return "MS5805-02BA"
	case MS5806_02BA:
		return "MS5806-02BA"
	case MS5837_30BA:
		return "MS5837-30BA"
	}
	return "MS58XX(unknown)"
}

// I2C addresses. The CSB pin selects between the two; the MS5805-02BA and
// MS5837-30BA only respond on the primary address.
const (
	Addr0 uint16 = 0x76
	Addr1 uint16 = 0x77
)

// Command bytes.
const (
	cmdReset     uint8 = 0x1E
	cmdConvertD1 uint8 = 0x40 // pressure conversion, OR'd with the OSR field
	cmdConvertD2 uint8 = 0x50 // temperature conversion, OR'd with the OSR field
	cmdReadADC   uint8 = 0x00
	cmdReadPROM  uint8 = 0xA0 // word n lives at cmdReadPROM + 2n
)

const promLen = 8

const maxOversampling uint16 = 8192

// params holds every model-dependent constant. One immutable entry per
// model, looked up once in New.
type params struct {
	// PROM layout: compact parts carry 7 words with the CRC nibble in
	// word 0 bits 15..12; the rest carry 8 words with it in word 7 bits 3..0.
	compactPROM bool
	// C7/C8 bit fields inside PROM word 7, zero masks when absent.
	c7Mask, c8Mask   uint16
	c7Shift, c8Shift uint8

	altAddr bool // secondary address 0x77 allowed
	osrMax  bool // OSR 8192 supported

	// First-order coefficient scaling exponents.
	c1s, c2s, c3s, c4s uint8

	// Second-order correction, low-temperature branch (temp < 20.00 C).
	diffMulL, diffDivLS uint8
	offMulL, offDivLS   uint8
	sensMulL, sensDivLS uint8

	// Extra multipliers below -15.00 C, quadratic in (temp + 1500).
	offMulVL, sensMulVL uint8

	// Second-order correction, high-temperature branch (temp >= 20.00 C).
	diffMulH, diffDivHS uint8
	offMulH, offDivHS   uint8
	sensMulH, sensDivHS uint8

	pressDivS uint8 // final pressure right shift

	// Model-specific post-correction of the compensated pressure.
	highPressCorr bool // cubic correction above 110000 counts (MS5803-07BA)
	supplyCorr    bool // supply-voltage correction (MS5806-02BA)

	// Pressure represented by one native count.
	unit physic.Pressure
}

var modelParams = map[Model]params{
	MS5803_02BA: {
		altAddr: true,
		c1s:     16, c2s: 17, c3s: 7, c4s: 6,
		diffMulL: 1, diffDivLS: 31, offMulL: 61, offDivLS: 4, sensMulL: 2, sensDivLS: 0,
		offMulVL: 20, sensMulVL: 12,
		pressDivS: 15,
		unit:      physic.Pascal, // 0.01 mbar
	},
	MS5803_05BA: {
		altAddr: true,
		c1s:     17, c2s: 18, c3s: 7, c4s: 5,
		diffMulL: 3, diffDivLS: 33, offMulL: 3, offDivLS: 3, sensMulL: 7, sensDivLS: 3,
		sensMulVL: 3,
		pressDivS: 15,
		unit:      physic.Pascal,
	},
	MS5803_07BA: {
		altAddr: true,
		c7Mask:  0x03F0, c7Shift: 4,
		c8Mask: 0xF700, c8Shift: 10,
		c1s: 17, c2s: 18, c3s: 6, c4s: 5,
		diffMulL: 3, diffDivLS: 33, offMulL: 3, offDivLS: 3, sensMulL: 7, sensDivLS: 3,
		sensMulVL:     3,
		pressDivS:     15,
		highPressCorr: true,
		unit:          physic.Pascal,
	},
	MS5803_14BA: {
		altAddr: true,
		c1s:     15, c2s: 16, c3s: 8, c4s: 7,
		diffMulL: 3, diffDivLS: 33, offMulL: 3, offDivLS: 1, sensMulL: 5, sensDivLS: 3,
		offMulVL: 7, sensMulVL: 4,
		diffMulH: 7, diffDivHS: 37, offMulH: 1, offDivHS: 4,
		pressDivS: 15,
		unit:      10 * physic.Pascal, // 0.1 mbar
	},
	MS5803_30BA: {
		altAddr: true,
		c1s:     15, c2s: 16, c3s: 8, c4s: 7,
		diffMulL: 3, diffDivLS: 33, offMulL: 3, offDivLS: 1, sensMulL: 5, sensDivLS: 3,
		offMulVL: 7, sensMulVL: 4,
		diffMulH: 7, diffDivHS: 37, offMulH: 1, offDivHS: 4,
		pressDivS: 13,
		unit:      10 * physic.Pascal,
	},
	MS5805_02BA: {
		compactPROM: true,
		osrMax:      true,
		c1s:         16, c2s: 17, c3s: 7, c4s: 6,
		diffMulL: 11, diffDivLS: 35, offMulL: 31, offDivLS: 3, sensMulL: 63, sensDivLS: 5,
		pressDivS: 15,
		unit:      physic.Pascal,
	},
	MS5806_02BA: {
		altAddr: true,
		c7Mask:  0x0FF0, c7Shift: 4,
		c1s: 16, c2s: 17, c3s: 7, c4s: 6,
		diffMulL: 1, diffDivLS: 31, offMulL: 61, offDivLS: 4, sensMulL: 2, sensDivLS: 0,
		offMulVL: 20, sensMulVL: 12,
		pressDivS:  15,
		supplyCorr: true,
		unit:       physic.Pascal,
	},
	MS5837_30BA: {
		compactPROM: true,
		osrMax:      true,
		c1s:         15, c2s: 16, c3s: 8, c4s: 7,
		diffMulL: 3, diffDivLS: 33, offMulL: 3, offDivLS: 1, sensMulL: 5, sensDivLS: 3,
		offMulVL: 7, sensMulVL: 4,
		diffMulH: 2, diffDivHS: 37, offMulH: 1, offDivHS: 4,
		pressDivS: 13,
		unit:      10 * physic.Pascal,
	},
}
