package transcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/youpy/go-wav"
)

// ErrUnsupportedFormat is returned for WAV input that is not mono 16-bit PCM.
var ErrUnsupportedFormat = errors.New("unsupported wav format, want mono 16-bit pcm")

// WAVE_FORMAT_PCM; extensible and float files are left to ffmpeg.
const wavFormatPCM = 1

// ReadWAV reads a mono 16-bit PCM WAV stream. The sample count comes from
// the data chunk size.
func ReadWAV(r interface {
	io.Reader
	io.ReaderAt
}) (*AudioData, error) {
	reader := wav.NewReader(r)

	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}

	if format.AudioFormat != wavFormatPCM || format.NumChannels != 1 || format.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: format 0x%04x, %d channels, %d bits",
			ErrUnsupportedFormat, format.AudioFormat, format.NumChannels, format.BitsPerSample)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read wav samples: %w", err)
	}

	audio := &AudioData{
		PCM:        bytesToInt16(data),
		SampleRate: int(format.SampleRate),
	}
	if audio.SampleRate > 0 {
		audio.Duration = time.Duration(len(audio.PCM)) * time.Second / time.Duration(audio.SampleRate)
	}

	return audio, nil
}

// ReadWAVFile opens path and reads it with ReadWAV.
func ReadWAVFile(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadWAV(f)
}

// WriteWAV writes samples as a mono 16-bit PCM WAV stream.
func WriteWAV(w io.Writer, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}

	wavSamples := make([]wav.Sample, len(samples))
	for i, s := range samples {
		wavSamples[i] = wav.Sample{Values: [2]int{int(s), int(s)}}
	}

	writer := wav.NewWriter(w, uint32(len(samples)), 1, uint32(sampleRate), 16)
	return writer.WriteSamples(wavSamples)
}

// WriteWAVFile creates path and writes samples to it.
func WriteWAVFile(path string, samples []int16, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := WriteWAV(bw, samples, sampleRate); err != nil {
		return err
	}
	return bw.Flush()
}
