package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	numChannels   = 1
	bitsPerSample = 16
)

// EncodeWAV encodes mono 16-bit PCM samples into a WAV file image.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	// RIFF chunk
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, int32(36+dataLen))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, int32(16))
	binary.Write(buf, binary.LittleEndian, int16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, int16(numChannels))
	binary.Write(buf, binary.LittleEndian, int32(sampleRate))
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	binary.Write(buf, binary.LittleEndian, int32(byteRate))
	binary.Write(buf, binary.LittleEndian, int16(numChannels*bitsPerSample/8))
	binary.Write(buf, binary.LittleEndian, int16(bitsPerSample))

	// data chunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, int32(dataLen))
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write samples: %w", err)
	}

	return buf.Bytes(), nil
}

// Int16ToBytes converts samples to little-endian LINEAR16 bytes, the wire
// format the recognition stream expects.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// BytesToInt16 is the inverse of Int16ToBytes. A trailing odd byte is
// dropped.
func BytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return out
}
