package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// maxFrameSamples is the decode buffer size per packet: 120 ms of stereo at
// 48 kHz, the longest Opus frame.
const maxFrameSamples = 5760 * 2

// Decoder decodes one Opus packet into little-endian 16-bit PCM.
// *opus.Decoder from github.com/pion/opus implements it.
type Decoder interface {
	Decode(in, out []byte) (opus.Bandwidth, bool, error)
}

// Cue is a decoded sound cue.
type Cue struct {
	Path       string
	PCM        []int16
	SampleRate uint32
	Stereo     bool
	Packets    int
}

// SplitPackets parses length-prefixed packets.
func SplitPackets(data []byte) ([][]byte, error) {
	var packets [][]byte
	for off := 0; off < len(data); {
		if len(data)-off < 2 {
			return nil, fmt.Errorf("%w: truncated length at offset %d", ErrCueFormat, off)
		}
		n := int(binary.BigEndian.Uint16(data[off:]))
		off += 2
		if n == 0 {
			return nil, fmt.Errorf("%w: empty packet at offset %d", ErrCueFormat, off-2)
		}
		if len(data)-off < n {
			return nil, fmt.Errorf("%w: packet of %d bytes truncated at offset %d", ErrCueFormat, n, off)
		}
		packets = append(packets, data[off:off+n])
		off += n
	}
	if len(packets) == 0 {
		return nil, fmt.Errorf("%w: no packets", ErrCueFormat)
	}
	return packets, nil
}

// DecodeCue decodes every packet of a cue file with dec.
func DecodeCue(dec Decoder, data []byte) (*Cue, error) {
	packets, err := SplitPackets(data)
	if err != nil {
		return nil, err
	}

	cue := &Cue{Packets: len(packets)}
	out := make([]byte, maxFrameSamples*2)
	for i, packet := range packets {
		bandwidth, stereo, err := dec.Decode(packet, out)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "DecodeCue",
				"packet":   i,
				"size":     len(packet),
				"error":    err.Error(),
			}).Debug("Opus packet decode failed")
			return nil, fmt.Errorf("%w: packet %d: %w", ErrDecode, i, err)
		}

		rate := uint32(bandwidth.SampleRate())
		if i == 0 {
			cue.SampleRate = rate
			cue.Stereo = stereo
		} else if rate != cue.SampleRate || stereo != cue.Stereo {
			return nil, fmt.Errorf("%w: packet %d changes stream format", ErrDecode, i)
		}

		samples, err := packetSamples(packet, rate, stereo)
		if err != nil {
			return nil, fmt.Errorf("%w: packet %d: %w", ErrDecode, i, err)
		}
		if samples > len(out)/2 {
			samples = len(out) / 2
		}
		for s := 0; s < samples; s++ {
			cue.PCM = append(cue.PCM, int16(binary.LittleEndian.Uint16(out[s*2:])))
		}
	}
	return cue, nil
}

// frameDurations maps the TOC configuration number to the frame length in
// microseconds (RFC 6716 section 3.1).
var frameDurations = [32]int{
	10000, 20000, 40000, 60000, // SILK NB
	10000, 20000, 40000, 60000, // SILK MB
	10000, 20000, 40000, 60000, // SILK WB
	10000, 20000,               // Hybrid SWB
	10000, 20000,               // Hybrid FB
	2500, 5000, 10000, 20000,   // CELT NB
	2500, 5000, 10000, 20000,   // CELT WB
	2500, 5000, 10000, 20000,   // CELT SWB
	2500, 5000, 10000, 20000,   // CELT FB
}

// packetSamples returns the interleaved sample count a packet decodes to.
func packetSamples(packet []byte, rate uint32, stereo bool) (int, error) {
	toc := packet[0]
	frames := 1
	switch toc & 0x3 {
	case 1, 2:
		frames = 2
	case 3:
		if len(packet) < 2 {
			return 0, fmt.Errorf("missing frame count byte")
		}
		frames = int(packet[1] & 0x3f)
	}

	samples := int(rate) * frameDurations[toc>>3] * frames / 1_000_000
	if stereo {
		samples *= 2
	}
	return samples, nil
}

func newOpusDecoder() Decoder {
	dec := opus.NewDecoder()
	return &dec
}
