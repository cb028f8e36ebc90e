package models

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadRaw fills vol.Data from r, which holds little-endian float32 values
// in the same order as Data
func ReadRaw(r io.Reader, vol *Volume) error {
	buf := make([]float32, len(vol.Data))
	if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("failed to read raw volume: %v", err)
	}
	for i, v := range buf {
		vol.Data[i] = float64(v)
	}
	return nil
}

// WriteRaw writes vol.Data to w as little-endian float32 values
func WriteRaw(w io.Writer, vol *Volume) error {
	buf := make([]float32, len(vol.Data))
	for i, v := range vol.Data {
		buf[i] = float32(v)
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("failed to write raw volume: %v", err)
	}
	return nil
}

// LoadRaw reads a headerless float32 volume of the given geometry from a file
func LoadRaw(path string, dims [3]int, volumes int, voxelSize, origin r3.Vec) (*Volume, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open volume: %v", err)
	}
	defer file.Close()

	vol := NewVolume(dims, volumes, voxelSize, origin)
	if err := ReadRaw(bufio.NewReader(file), vol); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vol, nil
}

// SaveRaw writes vol to a headerless float32 file
func SaveRaw(path string, vol *Volume) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %v", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := WriteRaw(w, vol); err != nil {
		return err
	}
	return w.Flush()
}
