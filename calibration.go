package ms58xx

// calibration holds the factory coefficients read from PROM. C7/C8 are only
// populated on the models whose PROM word 7 carries them.
type calibration struct {
	c1, c2, c3, c4, c5, c6 uint16
	c7, c8                 uint8
}

// crc4 computes the 4-bit PROM checksum over the 8-word block. The CRC
// nibble must already be masked to zero in the block. Words are fed into
// the register most-significant byte first.
func crc4(words []uint16) uint8 {
	var crc uint16
	for _, w := range words {
		for _, b := range [2]uint8{uint8(w >> 8), uint8(w)} {
			crc ^= uint16(b)
			for i := 0; i < 8; i++ {
				xor := crc&0x8000 != 0
				crc <<= 1
				if xor {
					crc ^= 0x3000
				}
			}
		}
	}
	return uint8(crc >> 12)
}

// readPROM reads the calibration words, validates the embedded CRC and
// decodes the coefficients. It never touches d.cal; the caller commits the
// returned set only on success.
func (d *Dev) readPROM() (calibration, error) {
	var prom [promLen]uint16

	// The compact parts only carry 7 words; the last is absent and counts
	// as zero in the checksum, and the CRC nibble moves to word 0.
	n := promLen
	crcIndex, crcShift := 7, uint8(0)
	if d.prm.compactPROM {
		n--
		crcIndex, crcShift = 0, 12
	}

	for i := 0; i < n; i++ {
		var buf [2]byte
		if err := d.d.Tx([]byte{cmdReadPROM + uint8(2*i)}, buf[:]); err != nil {
			return calibration{}, err
		}
		prom[i] = uint16(buf[0])<<8 | uint16(buf[1])
	}

	want := uint8(prom[crcIndex]>>crcShift) & 0xF
	prom[crcIndex] &^= 0xF << crcShift

	if crc4(prom[:]) != want {
		return calibration{}, ErrInvalidCRC
	}

	return calibration{
		c1: prom[1],
		c2: prom[2],
		c3: prom[3],
		c4: prom[4],
		c5: prom[5],
		c6: prom[6],
		c7: uint8((prom[7] & d.prm.c7Mask) >> d.prm.c7Shift),
		c8: uint8((prom[7] & d.prm.c8Mask) >> d.prm.c8Shift),
	}, nil
}
