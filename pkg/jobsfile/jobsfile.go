// Package jobsfile reads and writes job duration lists: the job count
// followed by that many non-negative integer durations, separated by any
// whitespace.
package jobsfile

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
)

// Read parses a job list from r.
func Read(r io.Reader) ([]int64, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty job list")
	}
	count, err := strconv.Atoi(sc.Text())
	if err != nil || count < 1 {
		return nil, fmt.Errorf("invalid job count %q", sc.Text())
	}

	durations := make([]int64, 0, count)
	for len(durations) < count {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("expected %d durations, got %d", count, len(durations))
		}
		d, err := strconv.ParseInt(sc.Text(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("duration %d: %w", len(durations), err)
		}
		if d < 0 {
			return nil, fmt.Errorf("duration %d: negative value %d", len(durations), d)
		}
		durations = append(durations, d)
	}
	if sc.Scan() {
		return nil, fmt.Errorf("unexpected token %q after %d durations", sc.Text(), count)
	}
	return durations, sc.Err()
}

// ReadFile parses the job list stored at path.
func ReadFile(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	durations, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return durations, nil
}

// Write emits durations in the format accepted by Read.
func Write(w io.Writer, durations []int64) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, len(durations)); err != nil {
		return err
	}
	for _, d := range durations {
		if _, err := fmt.Fprintln(bw, d); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes durations to path.
func WriteFile(path string, durations []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, durations); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Generate draws n durations uniformly from [min, max].
func Generate(rng *rand.Rand, n int, min, max int64) ([]int64, error) {
	if n < 1 {
		return nil, fmt.Errorf("job count must be > 0 (got %d)", n)
	}
	if min < 0 || max < min {
		return nil, fmt.Errorf("invalid duration range [%d, %d]", min, max)
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = min + rng.Int63n(max-min+1)
	}
	return out, nil
}
