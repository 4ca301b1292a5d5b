package romloader

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrInvalidHeader is returned when image data is not a usable iNES file.
var ErrInvalidHeader = errors.New("invalid iNES header")

var magicINES = []byte{'N', 'E', 'S', 0x1A}

const (
	inesHeaderSize = 16
	trainerSize    = 512
	prgBankSize    = 16 * 1024
	chrBankSize    = 8 * 1024
)

// Mirroring is the nametable arrangement declared by the header.
type Mirroring int

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorFourScreen
)

// String returns the display name of the mirroring mode.
func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "Horizontal"
	case MirrorVertical:
		return "Vertical"
	case MirrorFourScreen:
		return "FourScreen"
	default:
		return "Unknown"
	}
}

// Header is the decoded iNES / NES 2.0 header of an image.
type Header struct {
	PRGSize   int // bytes
	CHRSize   int // bytes, 0 means CHR RAM
	Mapper    int
	Submapper int
	Mirroring Mirroring
	Battery   bool
	Trainer   bool
	NES20     bool
}

// ParseINES validates the header of an iNES image and checks that the
// declared PRG/CHR sizes are present in data.
func ParseINES(data []byte) (Header, error) {
	var h Header
	if len(data) < inesHeaderSize {
		return h, fmt.Errorf("%w: image is %d bytes", ErrInvalidHeader, len(data))
	}
	if !bytes.Equal(data[:4], magicINES) {
		return h, fmt.Errorf("%w: bad magic", ErrInvalidHeader)
	}

	flags6, flags7 := data[6], data[7]
	h.NES20 = flags7&0x0C == 0x08
	h.Battery = flags6&0x02 != 0
	h.Trainer = flags6&0x04 != 0

	switch {
	case flags6&0x08 != 0:
		h.Mirroring = MirrorFourScreen
	case flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}

	h.Mapper = int(flags6 >> 4)
	switch {
	case h.NES20:
		h.Mapper |= int(flags7&0xF0) | int(data[8]&0x0F)<<8
		h.Submapper = int(data[8] >> 4)
		h.PRGSize = nes20Size(data[4], data[9]&0x0F, prgBankSize)
		h.CHRSize = nes20Size(data[5], data[9]>>4, chrBankSize)
	case isZero(data[12:16]):
		h.Mapper |= int(flags7 & 0xF0)
		h.PRGSize = int(data[4]) * prgBankSize
		h.CHRSize = int(data[5]) * chrBankSize
	default:
		// Archaic dumps carry junk in bytes 7-15; only the low nibble is
		// trustworthy.
		h.PRGSize = int(data[4]) * prgBankSize
		h.CHRSize = int(data[5]) * chrBankSize
	}

	if h.PRGSize == 0 {
		return h, fmt.Errorf("%w: no PRG ROM", ErrInvalidHeader)
	}

	need := inesHeaderSize + h.PRGSize + h.CHRSize
	if h.Trainer {
		need += trainerSize
	}
	if len(data) < need {
		return h, fmt.Errorf("%w: truncated image (%d of %d bytes)", ErrInvalidHeader, len(data), need)
	}
	return h, nil
}

// PRG returns the PRG ROM bytes of a validated image.
func (h Header) PRG(data []byte) []byte {
	start := inesHeaderSize
	if h.Trainer {
		start += trainerSize
	}
	return data[start : start+h.PRGSize]
}

// nes20Size decodes a NES 2.0 ROM size from its LSB byte and MSB nibble.
// An MSB nibble of 0xF selects the exponent-multiplier notation.
func nes20Size(lsb, msb byte, unit int) int {
	if msb == 0x0F {
		exp := uint(lsb >> 2)
		mul := int(lsb&0x03)*2 + 1
		if exp > 30 {
			return 1 << 31
		}
		return (1 << exp) * mul
	}
	return (int(msb)<<8 | int(lsb)) * unit
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
