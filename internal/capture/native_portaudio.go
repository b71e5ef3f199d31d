//go:build cgo && !noportaudio

package capture

import (
	"encoding/binary"

	"github.com/gordonklaus/portaudio"
)

// DefaultDriver returns the PortAudio binding.
func DefaultDriver() Driver {
	return portAudioDriver{}
}

type portAudioDriver struct{}

func (portAudioDriver) Initialize() error { return portaudio.Initialize() }
func (portAudioDriver) Terminate() error  { return portaudio.Terminate() }

func (portAudioDriver) OpenInput(f Format, framesPerBuffer int) (InputStream, error) {
	in := make([]int16, framesPerBuffer*f.Channels)
	stream, err := portaudio.OpenDefaultStream(f.Channels, 0, float64(f.SampleRate), framesPerBuffer, in)
	if err != nil {
		return nil, err
	}
	return &portAudioStream{
		stream: stream,
		in:     in,
		out:    make([]byte, len(in)*2),
	}, nil
}

type portAudioStream struct {
	stream *portaudio.Stream
	in     []int16
	out    []byte
}

func (s *portAudioStream) Start() error { return s.stream.Start() }
func (s *portAudioStream) Stop() error  { return s.stream.Stop() }
func (s *portAudioStream) Close() error { return s.stream.Close() }

func (s *portAudioStream) Read() ([]byte, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	for i, v := range s.in {
		binary.LittleEndian.PutUint16(s.out[i*2:], uint16(v))
	}
	return s.out, nil
}
