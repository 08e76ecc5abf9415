//go:build linux || darwin

package ioabs

import (
	"fmt"
	"os"
	"syscall"
)

type mmapSource struct {
	f    *os.File
	data []byte
}

// OpenFile memory-maps path read-only. The mapping is dropped and the file
// closed on Close.
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

	data, err := syscall.Mmap(int(f.Fd()), 0, int(sz), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("ioabs: mmap failed: %w", err)
	}

	return &mmapSource{f: f, data: data}, nil
}

func (s *mmapSource) Bytes() []byte { return s.data }

func (s *mmapSource) Close() error {
	var err error
	if s.data != nil {
		err = syscall.Munmap(s.data)
		s.data = nil
	}
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
		s.f = nil
	}
	return err
}
