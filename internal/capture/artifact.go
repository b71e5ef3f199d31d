package capture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// Artifact is a finished WAV recording on disk. The caller owns it once Stop
// returns and is responsible for calling Remove.
type Artifact struct {
	Path      string
	Backend   Backend
	Bytes     int64
	CreatedAt time.Time

	removeOnce sync.Once
	removeErr  error
}

func newArtifact(path string, b Backend) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Path:      path,
		Backend:   b,
		Bytes:     info.Size(),
		CreatedAt: time.Now(),
	}, nil
}

// Remove deletes the underlying file. Only the first call touches the
// filesystem; later calls return the first result.
func (a *Artifact) Remove() error {
	if a == nil {
		return nil
	}
	a.removeOnce.Do(func() {
		err := os.Remove(a.Path)
		if err != nil && !os.IsNotExist(err) {
			a.removeErr = err
		}
	})
	return a.removeErr
}

// tempPath returns a fresh, uniquely named WAV path inside dir.
func tempPath(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return filepath.Join(dir, fmt.Sprintf("opentranscribe_%s.wav", id))
}

// WriteWAV serializes raw little-endian PCM into a RIFF/WAVE file at path.
// The frame count in the header is implied by len(pcm).
func WriteWAV(path string, f Format, pcm []byte) error {
	if f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d", f.BitDepth)
	}
	if len(pcm)%f.BytesPerFrame() != 0 {
		return fmt.Errorf("pcm length %d not aligned to frame size %d", len(pcm), f.BytesPerFrame())
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	enc := wav.NewEncoder(file, f.SampleRate, f.BitDepth, f.Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
		Data:           samples,
		SourceBitDepth: f.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = file.Close()
		return fmt.Errorf("write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("finalize header: %w", err)
	}
	return file.Close()
}
