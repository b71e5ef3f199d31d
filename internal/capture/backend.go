package capture

import (
	"fmt"
	"strconv"
)

// Kind identifies which family of capture mechanism a Backend uses.
type Kind int

const (
	Unavailable Kind = iota
	NativeStream
	ExternalProcess
)

func (k Kind) String() string {
	switch k {
	case NativeStream:
		return "native"
	case ExternalProcess:
		return "process"
	default:
		return "unavailable"
	}
}

// Tool is an external command-line recorder.
type Tool string

const (
	ToolNone       Tool = ""
	ToolALSA       Tool = "arecord"
	ToolPulseAudio Tool = "parecord"
	ToolFFmpeg     Tool = "ffmpeg"
)

// ProbeOrder is the fixed priority in which external tools are looked up.
var ProbeOrder = []Tool{ToolALSA, ToolPulseAudio, ToolFFmpeg}

// Command returns the executable name looked up on PATH.
func (t Tool) Command() string {
	return string(t)
}

// Backend is the capture mechanism selected once at manager construction.
// It is never mutated afterwards and may be read from any goroutine.
type Backend struct {
	Kind Kind
	Tool Tool   // set only for ExternalProcess
	Path string // resolved executable path for ExternalProcess
}

func (b Backend) String() string {
	switch b.Kind {
	case NativeStream:
		return "PortAudio"
	case ExternalProcess:
		switch b.Tool {
		case ToolALSA:
			return "ALSA (arecord)"
		case ToolPulseAudio:
			return "PulseAudio (parecord)"
		case ToolFFmpeg:
			return "FFmpeg"
		}
		return fmt.Sprintf("external (%s)", b.Tool)
	default:
		return "No audio recording available"
	}
}

// Format describes the raw PCM layout of every artifact.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is mono, 16-bit signed little-endian PCM at 44.1 kHz.
var DefaultFormat = Format{SampleRate: 44100, Channels: 1, BitDepth: 16}

// BytesPerFrame is the size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitDepth / 8
}

// toolArgs builds the non-interactive command line for an external recorder
// writing a WAV file to output.
func toolArgs(tool Tool, goos string, f Format, output string) []string {
	rate := strconv.Itoa(f.SampleRate)
	channels := strconv.Itoa(f.Channels)

	switch tool {
	case ToolALSA:
		return []string{
			"-q",
			"-f", "S16_LE",
			"-c", channels,
			"-r", rate,
			"-t", "wav",
			output,
		}
	case ToolPulseAudio:
		return []string{
			"--format=s16le",
			"--channels=" + channels,
			"--rate=" + rate,
			"--file-format=wav",
			output,
		}
	case ToolFFmpeg:
		input, device := "alsa", "default"
		if goos == "darwin" {
			input, device = "avfoundation", ":0"
		}
		return []string{
			"-hide_banner",
			"-nostdin",
			"-loglevel", "error",
			"-f", input,
			"-i", device,
			"-acodec", "pcm_s16le",
			"-ar", rate,
			"-ac", channels,
			"-y",
			output,
		}
	}
	return nil
}
