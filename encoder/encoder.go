package encoder

import (
	"fmt"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns 16-bit mono PCM blocks into one encoded audio payload.
// MIME reports the media type of the payload so callers never have to
// guess what Bytes actually contains.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	MIME() string
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}

// New builds an encoder for a -format flag value.
func New(format string) (Encoder, error) {
	switch format {
	case "wav":
		return NewWav(), nil
	case "flac":
		return NewFlac()
	default:
		return nil, fmt.Errorf("unknown format %q (use wav or flac)", format)
	}
}
