package utils

// Signals are packed little-endian into a 64-bit payload, bit 0 being the
// LSB of byte 0.

func fieldMask(bitLen int) uint64 {
	if bitLen >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bitLen) - 1
}

func extractField(payload uint64, startBit, bitLen int) uint64 {
	if bitLen <= 0 || bitLen > 64 || startBit < 0 || startBit+bitLen > 64 {
		return 0
	}
	return (payload >> startBit) & fieldMask(bitLen)
}

func insertField(payload uint64, startBit, bitLen int, field uint64) uint64 {
	if bitLen <= 0 || bitLen > 64 || startBit < 0 || startBit+bitLen > 64 {
		return payload
	}
	m := fieldMask(bitLen)
	return (payload &^ (m << startBit)) | ((field & m) << startBit)
}

// signExtend interprets the low bitLen bits of u as two's complement.
func signExtend(u uint64, bitLen int, signed bool) int64 {
	if !signed || bitLen <= 0 || bitLen >= 64 {
		return int64(u)
	}
	shift := 64 - bitLen
	return int64(u<<shift) >> shift
}

// toField truncates raw to bitLen bits of two's complement.
func toField(raw int64, bitLen int) uint64 {
	return uint64(raw) & fieldMask(bitLen)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rawRange is the representable raw range of a signal field.
func rawRange(bitLen int, signed bool) (lo, hi int64) {
	if bitLen <= 0 || bitLen > 63 {
		return -1 << 63, 1<<63 - 1
	}
	if !signed {
		return 0, int64(1)<<bitLen - 1
	}
	return -(int64(1) << (bitLen - 1)), int64(1)<<(bitLen-1) - 1
}

func clampRaw(raw int64, bitLen int, signed bool) int64 {
	lo, hi := rawRange(bitLen, signed)
	if raw < lo {
		return lo
	}
	if raw > hi {
		return hi
	}
	return raw
}
