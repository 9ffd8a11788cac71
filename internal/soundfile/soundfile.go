// Package soundfile decodes WAV/AIFF/AU/raw PCM files into a
// framebuffer.Buffer, normalizing integer samples to floating point
// according to a caller-selected scale code.
package soundfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/wav"

	"github.com/bflamig/dfxplay/internal/framebuffer"
)

// Format identifies the on-disk sample representation.
type Format int

const (
	SINT16 Format = iota
	SINT24
	SINT32
	FLOAT32
	FLOAT64
)

// Kind identifies which container format a Reader was opened against.
type Kind int

const (
	KindWAV Kind = iota
	KindAIFF
	KindAU
	KindRaw
)

// Reader is a transient descriptor bound to an open file handle, alive
// only for the duration of a kit-load read.
type Reader struct {
	path       string
	f          *os.File
	Kind       Kind
	NumChans   int
	NumFrames  int
	Format     Format
	SampleRate float64
	ByteSwap   bool
	DataOffset int64

	errs []error
}

func bytesPerSample(f Format) int {
	switch f {
	case SINT16:
		return 2
	case SINT24:
		return 3
	case SINT32, FLOAT32:
		return 4
	case FLOAT64:
		return 8
	default:
		return 0
	}
}

var hostIsBigEndian = func() bool {
	buf := make([]byte, 2)
	binary.NativeEndian.PutUint16(buf, 1)
	return buf[0] == 0
}()

func (r *Reader) logError(err error) {
	r.errs = append(r.errs, err)
}

// LastError returns the most recently logged error, or nil if none.
func (r *Reader) LastError() error {
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

// Errors returns every error logged against this reader, oldest first.
func (r *Reader) Errors() []error {
	return r.errs
}

// Close releases the underlying file handle, if any.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// Open auto-detects the container format from the first bytes of the
// file at path and positions the reader at the first sample byte.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("soundfile: file not found: %s: %w", path, err)
	}

	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil || n < 12 {
		f.Close()
		return nil, fmt.Errorf("soundfile: empty or truncated file: %s", path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("soundfile: seek failed: %s: %w", path, err)
	}

	r := &Reader{path: path, f: f}

	switch {
	case string(head[0:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		r.Kind = KindWAV
		if err := r.parseWAV(); err != nil {
			f.Close()
			return nil, err
		}
	case string(head[0:4]) == ".snd":
		r.Kind = KindAU
		if err := r.parseAU(); err != nil {
			f.Close()
			return nil, err
		}
	case string(head[0:4]) == "FORM" && (string(head[8:12]) == "AIFF" || string(head[8:12]) == "AIFC"):
		r.Kind = KindAIFF
		if err := r.parseAIFF(); err != nil {
			f.Close()
			return nil, err
		}
	case isMatHeader(head):
		f.Close()
		return nil, fmt.Errorf("soundfile: format-unsupported: MAT files are not supported: %s", path)
	default:
		f.Close()
		return nil, fmt.Errorf("soundfile: format-unsupported: unrecognized header: %s", path)
	}

	return r, nil
}

func isMatHeader(head []byte) bool {
	// MAT-file level 5 headers carry "MATLAB" in their text banner.
	return len(head) >= 6 && string(head[0:6]) == "MATLAB"
}

// OpenRaw opens a headerless PCM file, with the caller supplying the
// metadata a container header would otherwise carry.
func OpenRaw(path string, numChans int, format Format, sampleRate float64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("soundfile: file not found: %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("soundfile: stat failed: %s: %w", path, err)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("soundfile: empty file: %s", path)
	}

	frameSize := bytesPerSample(format) * numChans
	r := &Reader{
		path:       path,
		f:          f,
		Kind:       KindRaw,
		NumChans:   numChans,
		Format:     format,
		SampleRate: sampleRate,
		ByteSwap:   hostIsBigEndian, // raw PCM is conventionally little-endian
		DataOffset: 0,
		NumFrames:  int(info.Size()) / frameSize,
	}
	return r, nil
}

func (r *Reader) parseWAV() error {
	d := wav.NewDecoder(r.f)
	if !d.IsValidFile() {
		return fmt.Errorf("soundfile: invalid WAV file: %s", r.path)
	}
	d.ReadInfo()

	const wavFormatPCM = 1
	const wavFormatFloat = 3
	switch int(d.WavAudioFormat) {
	case wavFormatPCM:
		switch d.BitDepth {
		case 16:
			r.Format = SINT16
		case 24:
			r.Format = SINT24
		case 32:
			r.Format = SINT32
		default:
			return fmt.Errorf("soundfile: format-unsupported: %d-bit PCM WAV: %s", d.BitDepth, r.path)
		}
	case wavFormatFloat:
		switch d.BitDepth {
		case 32:
			r.Format = FLOAT32
		case 64:
			r.Format = FLOAT64
		default:
			return fmt.Errorf("soundfile: format-unsupported: %d-bit float WAV: %s", d.BitDepth, r.path)
		}
	default:
		return fmt.Errorf("soundfile: format-unsupported: compressed WAV (tag %d): %s", d.WavAudioFormat, r.path)
	}

	if err := d.FwdToPCM(); err != nil {
		return fmt.Errorf("soundfile: locate PCM chunk failed: %s: %w", r.path, err)
	}
	pos, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("soundfile: seek failed: %s: %w", r.path, err)
	}

	r.NumChans = int(d.NumChans)
	r.SampleRate = float64(d.SampleRate)
	r.ByteSwap = hostIsBigEndian // WAV data is always little-endian
	r.DataOffset = pos

	frameSize := bytesPerSample(r.Format) * r.NumChans
	pcmLen := d.PCMLen()
	if frameSize == 0 || pcmLen <= 0 {
		return fmt.Errorf("soundfile: no PCM data: %s", r.path)
	}
	r.NumFrames = int(pcmLen) / frameSize
	return nil
}

// Read resizes buffer to hold frames [startFrame, endFrame) (or to the
// end of the file if endFrame <= 0), decodes them from disk applying
// byte-swap and the requested scale code, and leaves the file positioned
// just past the read.
func (r *Reader) Read(buf *framebuffer.Buffer, startFrame, endFrame int, scaleCode float64) error {
	if r.f == nil {
		err := fmt.Errorf("soundfile: file not open: %s", r.path)
		r.logError(err)
		return err
	}

	buffEnd := endFrame
	if endFrame <= 0 {
		buffEnd = r.NumFrames
	}
	if startFrame < 0 || buffEnd < startFrame || buffEnd > r.NumFrames {
		err := fmt.Errorf("soundfile: invalid frame range [%d,%d) for %d frames: %s", startFrame, buffEnd, r.NumFrames, r.path)
		r.logError(err)
		return err
	}

	nFrames := buffEnd - startFrame
	buf.Resize(nFrames, r.NumChans)
	buf.DataRate = r.SampleRate

	nSamples := nFrames * r.NumChans
	bps := bytesPerSample(r.Format)
	byteOffset := r.DataOffset + int64(startFrame*r.NumChans*bps)

	if _, err := r.f.Seek(byteOffset, io.SeekStart); err != nil {
		werr := fmt.Errorf("soundfile: seek failed: %s: %w", r.path, err)
		r.logError(werr)
		return werr
	}

	raw := make([]byte, nSamples*bps)
	if _, err := io.ReadFull(r.f, raw); err != nil {
		werr := fmt.Errorf("soundfile: read-short: %s: %w", r.path, err)
		r.logError(werr)
		return werr
	}

	decodeSamples(raw, r.Format, r.ByteSwap, scaleCode, buf.Samples)
	return nil
}

func decodeSamples(raw []byte, format Format, byteSwap bool, scaleCode float64, dest []float64) {
	switch format {
	case SINT16:
		const baseScale = 1.0 / 32768.0
		scale, identity := resolveScale(scaleCode, baseScale)
		for i := range dest {
			b := raw[i*2 : i*2+2]
			var v int16
			if byteSwap {
				v = int16(binary.BigEndian.Uint16(b))
			} else {
				v = int16(binary.LittleEndian.Uint16(b))
			}
			if identity {
				dest[i] = float64(v)
			} else {
				dest[i] = float64(v) * scale
			}
		}
	case SINT32:
		const baseScale = 1.0 / 2147483648.0
		scale, identity := resolveScale(scaleCode, baseScale)
		for i := range dest {
			b := raw[i*4 : i*4+4]
			var v int32
			if byteSwap {
				v = int32(binary.BigEndian.Uint32(b))
			} else {
				v = int32(binary.LittleEndian.Uint32(b))
			}
			if identity {
				dest[i] = float64(v)
			} else {
				dest[i] = float64(v) * scale
			}
		}
	case SINT24:
		// Equivalent to placing the 3-byte sample in the high bytes of a
		// 32-bit word and dividing by 2^31: sign-extend to a plain
		// 24-bit range and divide by 2^23.
		const baseScale = 1.0 / 8388608.0
		scale, identity := resolveScale(scaleCode, baseScale)
		for i := range dest {
			b0, b1, b2 := raw[i*3], raw[i*3+1], raw[i*3+2]
			if byteSwap {
				b0, b2 = b2, b0
			}
			v := int32(b0) | int32(b1)<<8 | int32(b2)<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF) // sign extend
			}
			if identity {
				dest[i] = float64(v)
			} else {
				dest[i] = float64(v) * scale
			}
		}
	case FLOAT32:
		for i := range dest {
			b := raw[i*4 : i*4+4]
			var bits uint32
			if byteSwap {
				bits = binary.BigEndian.Uint32(b)
			} else {
				bits = binary.LittleEndian.Uint32(b)
			}
			v := float64(math.Float32frombits(bits))
			if scaleCode == 0 || scaleCode == 1.0 {
				dest[i] = v
			} else {
				dest[i] = v * scaleCode
			}
		}
	case FLOAT64:
		for i := range dest {
			b := raw[i*8 : i*8+8]
			var bits uint64
			if byteSwap {
				bits = binary.BigEndian.Uint64(b)
			} else {
				bits = binary.LittleEndian.Uint64(b)
			}
			v := math.Float64frombits(bits)
			if scaleCode == 0 || scaleCode == 1.0 {
				dest[i] = v
			} else {
				dest[i] = v * scaleCode
			}
		}
	}
}

// resolveScale returns the multiplier to apply and whether scaleCode
// selects the identity (raw, unscaled) path.
func resolveScale(scaleCode, baseScale float64) (scale float64, identity bool) {
	if scaleCode == 0 {
		return 0, true
	}
	return baseScale * scaleCode, false
}
