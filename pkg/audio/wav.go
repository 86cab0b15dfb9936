package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotWAV marks input that is not a RIFF WAVE stream.
	ErrNotWAV = errors.New("audio: not a RIFF WAVE stream")

	// ErrUnsupportedFormat marks WAV data that is not 16-bit PCM.
	ErrUnsupportedFormat = errors.New("audio: unsupported WAV format")
)

// DecodeWAV reads a RIFF WAVE stream and returns its contents as a mono
// clip. Only uncompressed 16-bit PCM is supported; multi-channel input is
// down-mixed by averaging.
func DecodeWAV(r io.Reader) (Clip, error) {
	br := bufio.NewReader(r)

	var hdr [12]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return Clip{}, fmt.Errorf("audio: reading RIFF header: %w", err)
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return Clip{}, ErrNotWAV
	}

	var (
		channels   int
		sampleRate int
		haveFmt    bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(br, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Clip{}, fmt.Errorf("%w: missing data chunk", ErrNotWAV)
			}
			return Clip{}, fmt.Errorf("audio: reading chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: fmt chunk too small", ErrNotWAV)
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(br, buf); err != nil {
				return Clip{}, fmt.Errorf("audio: reading fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(buf[0:2])
			channels = int(binary.LittleEndian.Uint16(buf[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(buf[4:8]))
			bits := binary.LittleEndian.Uint16(buf[14:16])
			if format != 1 || bits != 16 || channels < 1 {
				return Clip{}, fmt.Errorf("%w: format %d, %d bits, %d channels",
					ErrUnsupportedFormat, format, bits, channels)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Clip{}, fmt.Errorf("%w: data chunk before fmt", ErrNotWAV)
			}
			pcm := make([]byte, size)
			if _, err := io.ReadFull(br, pcm); err != nil {
				return Clip{}, fmt.Errorf("audio: reading data chunk: %w", err)
			}
			return Clip{Samples: PCMToFloat32Mono(pcm, channels), SampleRate: sampleRate}, nil
		default:
			// Chunks are word-aligned, odd sizes carry a pad byte.
			if _, err := io.CopyN(io.Discard, br, int64(size)+int64(size&1)); err != nil {
				return Clip{}, fmt.Errorf("audio: skipping %q chunk: %w", id, err)
			}
		}
	}
}

// DecodeWAVFile decodes the WAV file at path.
func DecodeWAVFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// EncodeWAV writes the clip as a mono 16-bit PCM RIFF WAVE stream.
func EncodeWAV(w io.Writer, c Clip) error {
	pcm := Float32ToPCM(c.Samples)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+len(pcm)))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(c.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(c.SampleRate*2))
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(len(pcm)))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("audio: writing WAV header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("audio: writing WAV data: %w", err)
	}
	return nil
}
