// Package tckio reads and writes streamlines in a plain-text format: one
// "x y z" point per line, streamlines separated by a blank line or by a
// "NaN NaN NaN" line. Lines starting with '#' are ignored.
package tckio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"twimap/internal/models"
)

// Reader yields streamlines one at a time
type Reader struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

// NewReader creates a reader over r
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{scanner: s}
}

// Next returns the next streamline, or io.EOF once the input is exhausted
func (r *Reader) Next() (models.Streamline, error) {
	if r.err != nil {
		return nil, r.err
	}
	var tck models.Streamline
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if strings.HasPrefix(text, "#") {
			continue
		}
		if text == "" {
			if len(tck) > 0 {
				return tck, nil
			}
			continue
		}

		p, err := parsePoint(text)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.line, err)
			return nil, r.err
		}
		if math.IsNaN(p.X) && math.IsNaN(p.Y) && math.IsNaN(p.Z) {
			if len(tck) > 0 {
				return tck, nil
			}
			continue
		}
		tck = append(tck, p)
	}
	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("failed to read streamlines: %v", err)
		return nil, r.err
	}
	r.err = io.EOF
	if len(tck) > 0 {
		return tck, nil
	}
	return nil, io.EOF
}

func parsePoint(text string) (r3.Vec, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return r3.Vec{}, fmt.Errorf("expected 3 coordinates, got %d", len(fields))
	}
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("invalid coordinate %q", f)
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ReadAll reads every streamline from r
func ReadAll(r io.Reader) ([]models.Streamline, error) {
	reader := NewReader(r)
	var tcks []models.Streamline
	for {
		tck, err := reader.Next()
		if err == io.EOF {
			return tcks, nil
		}
		if err != nil {
			return nil, err
		}
		tcks = append(tcks, tck)
	}
}

// Load reads every streamline from a file
func Load(path string) ([]models.Streamline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open streamlines: %v", err)
	}
	defer file.Close()
	return ReadAll(file)
}

// Write writes tcks to w, separating streamlines by blank lines
func Write(w io.Writer, tcks []models.Streamline) error {
	bw := bufio.NewWriter(w)
	for i, tck := range tcks {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		for _, p := range tck {
			line := strconv.FormatFloat(p.X, 'g', -1, 64) + " " +
				strconv.FormatFloat(p.Y, 'g', -1, 64) + " " +
				strconv.FormatFloat(p.Z, 'g', -1, 64) + "\n"
			if _, err := bw.WriteString(line); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Save writes tcks to a file
func Save(path string, tcks []models.Streamline) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create streamline file: %v", err)
	}
	defer file.Close()
	return Write(file, tcks)
}
