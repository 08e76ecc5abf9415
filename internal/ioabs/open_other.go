//go:build !linux && !darwin

package ioabs

import (
	"fmt"
	"io"
	"os"
)

type bufferSource struct {
	f    *os.File
	data []byte
}

// OpenFile reads path fully into memory on platforms without a mmap
// implementation here.
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("ioabs: empty hive file: %s", path)
	}

	data := make([]byte, sz)
	if _, err := io.ReadFull(f, data); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &bufferSource{f: f, data: data}, nil
}

func (s *bufferSource) Bytes() []byte { return s.data }

func (s *bufferSource) Close() error {
	s.data = nil
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		return err
	}
	return nil
}
