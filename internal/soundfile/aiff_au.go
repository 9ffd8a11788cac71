package soundfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// parseAIFF walks FORM/AIFF or FORM/AIFC chunks to locate COMM (format)
// and SSND (data), per the classic Apple EA-IFF-85 layout. No pack
// library decodes AIFF, so this is hand-rolled chunk-by-chunk.
func (r *Reader) parseAIFF() error {
	if _, err := r.f.Seek(12, io.SeekStart); err != nil {
		return fmt.Errorf("soundfile: seek failed: %s: %w", r.path, err)
	}

	var haveCOMM, haveSSND bool
	var bits int
	var compression [4]byte
	hasCompression := false

	for {
		var hdr [8]byte
		n, err := io.ReadFull(r.f, hdr[:])
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return fmt.Errorf("soundfile: read-short: %s: %w", r.path, err)
		}
		chunkID := string(hdr[0:4])
		chunkSize := int64(binary.BigEndian.Uint32(hdr[4:8]))
		chunkStart, _ := r.f.Seek(0, io.SeekCurrent)

		switch chunkID {
		case "COMM":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r.f, body); err != nil {
				return fmt.Errorf("soundfile: read-short: %s: %w", r.path, err)
			}
			r.NumChans = int(binary.BigEndian.Uint16(body[0:2]))
			r.NumFrames = int(binary.BigEndian.Uint32(body[2:6]))
			bits = int(binary.BigEndian.Uint16(body[6:8]))
			r.SampleRate = ieee80ToFloat64(body[8:18])
			if len(body) >= 22 {
				copy(compression[:], body[18:22])
				hasCompression = true
			}
			haveCOMM = true
		case "SSND":
			var ssndHead [8]byte
			if _, err := io.ReadFull(r.f, ssndHead[:]); err != nil {
				return fmt.Errorf("soundfile: read-short: %s: %w", r.path, err)
			}
			offset := int64(binary.BigEndian.Uint32(ssndHead[0:4]))
			r.DataOffset = chunkStart + 8 + offset
			haveSSND = true
		}

		// chunks are word-aligned; pad byte follows an odd-sized chunk
		next := chunkStart + chunkSize
		if chunkSize%2 != 0 {
			next++
		}
		if _, err := r.f.Seek(next, io.SeekStart); err != nil {
			break
		}
	}

	if !haveCOMM || !haveSSND {
		return fmt.Errorf("soundfile: malformed AIFF (missing COMM/SSND): %s", r.path)
	}

	switch bits {
	case 16:
		r.Format = SINT16
	case 24:
		r.Format = SINT24
	case 32:
		r.Format = SINT32
	default:
		return fmt.Errorf("soundfile: format-unsupported: %d-bit AIFF: %s", bits, r.path)
	}

	// AIFC "sowt" marks little-endian ("swapped") sample data; everything
	// else in AIFF/AIFC is big-endian.
	r.ByteSwap = !hostIsBigEndian
	if hasCompression && string(compression[:]) == "sowt" {
		r.ByteSwap = hostIsBigEndian
	}

	return nil
}

// ieee80ToFloat64 decodes the 80-bit IEEE extended-precision float AIFF
// uses for its sample rate field.
func ieee80ToFloat64(b []byte) float64 {
	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1.0
	}
	exp := int(binary.BigEndian.Uint16(b[0:2]) & 0x7FFF)
	mantissa := binary.BigEndian.Uint64(b[2:10])
	if exp == 0 && mantissa == 0 {
		return 0
	}
	f := float64(mantissa) * math.Pow(2, float64(exp-16383-63))
	return sign * f
}

// parseAU walks a NeXT/Sun .snd header: magic, dataOffset, dataSize,
// encoding, sampleRate, channels, all big-endian, followed by an
// optional info string padded out to dataOffset.
func (r *Reader) parseAU() error {
	var hdr [24]byte
	if _, err := io.ReadFull(r.f, hdr[:]); err != nil {
		return fmt.Errorf("soundfile: read-short: %s: %w", r.path, err)
	}

	dataOffset := binary.BigEndian.Uint32(hdr[4:8])
	dataSize := binary.BigEndian.Uint32(hdr[8:12])
	encoding := binary.BigEndian.Uint32(hdr[12:16])
	sampleRate := binary.BigEndian.Uint32(hdr[16:20])
	numChans := binary.BigEndian.Uint32(hdr[20:24])

	const (
		auEncodingLinear8  = 2
		auEncodingLinear16 = 3
		auEncodingLinear24 = 4
		auEncodingLinear32 = 5
		auEncodingFloat32  = 6
		auEncodingFloat64  = 7
	)

	switch encoding {
	case auEncodingLinear16:
		r.Format = SINT16
	case auEncodingLinear24:
		r.Format = SINT24
	case auEncodingLinear32:
		r.Format = SINT32
	case auEncodingFloat32:
		r.Format = FLOAT32
	case auEncodingFloat64:
		r.Format = FLOAT64
	case auEncodingLinear8:
		return fmt.Errorf("soundfile: format-unsupported: 8-bit AU: %s", r.path)
	default:
		return fmt.Errorf("soundfile: format-unsupported: AU encoding %d: %s", encoding, r.path)
	}

	r.NumChans = int(numChans)
	r.SampleRate = float64(sampleRate)
	r.ByteSwap = !hostIsBigEndian
	r.DataOffset = int64(dataOffset)

	frameSize := bytesPerSample(r.Format) * r.NumChans
	if frameSize == 0 {
		return fmt.Errorf("soundfile: malformed AU header: %s", r.path)
	}
	r.NumFrames = int(dataSize) / frameSize
	return nil
}
