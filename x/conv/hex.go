// Package conv formats small integers without fmt or strconv, for use on
// paths that must not allocate.
package conv

const hexd = "0123456789abcdef"

// U8Hex writes n as two lowercase hex digits without 0x.
func U8Hex(buf []byte, n uint8) []byte {
	if len(buf) < 2 {
		return buf[:0]
	}
	i := len(buf) - 2
	buf[i] = hexd[n>>4]
	buf[i+1] = hexd[n&0xF]
	return buf[i:]
}

// AddrHex writes an I²C address as hex without 0x: two digits for 7-bit
// addresses, three for 10-bit ones. buf should be length >= 3.
func AddrHex(buf []byte, addr uint16) []byte {
	if addr <= 0xFF {
		return U8Hex(buf, uint8(addr))
	}
	if len(buf) < 3 {
		return buf[:0]
	}
	i := len(buf) - 3
	buf[i] = hexd[(addr>>8)&0xF]
	buf[i+1] = hexd[(addr>>4)&0xF]
	buf[i+2] = hexd[addr&0xF]
	return buf[i:]
}
