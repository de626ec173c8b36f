package ms58xx

// compensate turns raw 24-bit ADC conversions into compensated temperature
// (centi-°C) and pressure (model-native counts). Pure function: datasheet
// second-order fixed-point arithmetic only, truncating division throughout,
// 64-bit intermediates so the squared terms cannot overflow.
//
// supplyDV is the supply voltage in decivolts, used only by the MS5806-02BA
// post-correction.
func compensate(prm *params, cal *calibration, rawPress, rawTemp uint32, supplyDV int64) (int32, int32) {
	diff := int32(rawTemp) - int32(cal.c5)*256
	temp := int32(2000 + int64(diff)*int64(cal.c6)/(1<<23))

	off := int64(cal.c2)*(1<<prm.c2s) + int64(cal.c4)*int64(diff)/(1<<prm.c4s)
	sens := int64(cal.c1)*(1<<prm.c1s) + int64(cal.c3)*int64(diff)/(1<<prm.c3s)

	var diffMul, diffDiv, offMulA, offDivA, sensMulA, sensDivA, offMulB, sensMulB int64
	if temp < 2000 {
		diffMul = int64(prm.diffMulL)
		diffDiv = 1 << prm.diffDivLS
		offMulA = int64(prm.offMulL)
		offDivA = 1 << prm.offDivLS
		sensMulA = int64(prm.sensMulL)
		sensDivA = 1 << prm.sensDivLS

		if temp < -1500 {
			offMulB = int64(prm.offMulVL)
			sensMulB = int64(prm.sensMulVL)
		}
	} else {
		diffMul = int64(prm.diffMulH)
		diffDiv = 1 << prm.diffDivHS
		offMulA = int64(prm.offMulH)
		offDivA = 1 << prm.offDivHS
		sensMulA = int64(prm.sensMulH)
		sensDivA = 1 << prm.sensDivHS
	}

	tm := int64(temp) - 2000
	tm *= tm

	tp := int64(temp) + 1500
	tp *= tp

	off -= offMulA*tm/offDivA + offMulB*tp
	sens -= sensMulA*tm/sensDivA + sensMulB*tp
	temp -= int32(diffMul * int64(diff) * int64(diff) / diffDiv)

	press := int32((int64(rawPress)*sens/(1<<21) - off) / (1 << prm.pressDivS))

	// MS5803-07BA: correction above 110000 counts, cubic in pressure.
	if prm.highPressCorr && press > 110000 {
		press += int32(((int64(cal.c7)-(1<<5))*100*(1<<2) -
			(int64(cal.c8)-(1<<5))*(int64(temp)-2000)/(1<<4)) *
			(int64(press) - 110000) / 49000000)
	}

	// MS5806-02BA: linear correction for the supply voltage, only defined
	// for supplies between 2.2V and 3.0V.
	if prm.supplyCorr && supplyDV >= 22 && supplyDV <= 30 {
		press += int32((30 - supplyDV) * int64(cal.c7) / ((1 << 6) * 10))
	}

	return temp, press
}
