// Package revline reads the lines of a seekable source from last to first.
//
// Registry metadata files are append-only, so the newest entries are at the
// end. Reading backwards lets a caller stop as soon as it has what it needs
// without touching the rest of the file.
package revline

import (
	"bytes"
	"io"
)

// DefaultChunkSize is the number of bytes read per backward step.
const DefaultChunkSize = 4096

// Scanner yields lines in reverse order. Line terminators ("\n" and a
// preceding "\r") are stripped. A trailing newline at the end of the source
// does not produce an empty final line.
type Scanner struct {
	r         io.ReaderAt
	offset    int64 // bytes [0, offset) have not been read yet
	chunkSize int
	buf       []byte // unread bytes of a partial line, followed by completed lines
	line      []byte
	err       error
	started   bool
}

// New creates a Scanner over the first size bytes of r.
func New(r io.ReaderAt, size int64) *Scanner {
	return NewSize(r, size, DefaultChunkSize)
}

// NewSize creates a Scanner with a custom chunk size.
func NewSize(r io.ReaderAt, size int64, chunkSize int) *Scanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Scanner{r: r, offset: size, chunkSize: chunkSize}
}

// Scan advances to the previous line. It returns false at the start of the
// source or on a read error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	for {
		if i := bytes.LastIndexByte(s.buf, '\n'); i >= 0 {
			line := s.buf[i+1:]
			s.buf = s.buf[:i]
			if !s.started {
				// Newline that terminates the final line
				s.started = true
				if len(line) == 0 {
					continue
				}
			}
			s.setLine(line)
			return true
		}

		if s.offset == 0 {
			if len(s.buf) == 0 {
				return false
			}
			// First line of the source has no preceding newline
			s.started = true
			s.setLine(s.buf)
			s.buf = nil
			return true
		}

		if err := s.fill(); err != nil {
			s.err = err
			return false
		}
	}
}

// Text returns the current line as a string.
func (s *Scanner) Text() string {
	return string(s.line)
}

// Bytes returns the current line. The slice is valid until the next Scan.
func (s *Scanner) Bytes() []byte {
	return s.line
}

// Err returns the first read error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) setLine(line []byte) {
	s.line = bytes.TrimSuffix(line, []byte{'\r'})
}

// fill prepends the previous chunk of the source to buf.
func (s *Scanner) fill() error {
	n := int64(s.chunkSize)
	if n > s.offset {
		n = s.offset
	}
	start := s.offset - n

	chunk := make([]byte, n, int(n)+len(s.buf))
	if _, err := s.r.ReadAt(chunk, start); err != nil && err != io.EOF {
		return err
	}
	s.buf = append(chunk, s.buf...)
	s.offset = start
	return nil
}
