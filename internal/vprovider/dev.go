package vprovider

import (
	"crypto/rand"
	"strings"
)

// devBufSize is the fixed conventional buffer size returned by
// /dev/zero and /dev/{,u}random reads.
const devBufSize = 4096

// DevProvider exposes null, zero, random, urandom, and clipboard.
// /dev/null discards any write and reads empty; /dev/zero and
// /dev/{,u}random are read-only fixed-size buffers; writes to any
// non-writable device fail with EINVAL.
type DevProvider struct {
	clipboard []byte
}

func NewDevProvider() *DevProvider {
	return &DevProvider{}
}

var devLeaves = []string{"null", "zero", "random", "urandom", "clipboard"}

func (d *DevProvider) name(subpath string) string {
	return strings.Trim(subpath, "/")
}

func (d *DevProvider) ReadFile(subpath string) ([]byte, error) {
	switch d.name(subpath) {
	case "null":
		return []byte{}, nil
	case "zero":
		return make([]byte, devBufSize), nil
	case "random", "urandom":
		buf := make([]byte, devBufSize)
		_, _ = rand.Read(buf)
		return buf, nil
	case "clipboard":
		return append([]byte(nil), d.clipboard...), nil
	}
	return nil, ErrNotExist
}

func (d *DevProvider) ReadFileString(subpath string) (string, error) {
	b, err := d.ReadFile(subpath)
	return string(b), err
}

func (d *DevProvider) WriteFile(subpath string, data []byte) error {
	switch d.name(subpath) {
	case "null":
		return nil // discard
	case "clipboard":
		d.clipboard = append([]byte(nil), data...)
		return nil
	case "zero", "random", "urandom":
		return ErrInvalid
	}
	return ErrNotExist
}

func (d *DevProvider) Exists(subpath string) bool {
	name := d.name(subpath)
	for _, l := range devLeaves {
		if l == name {
			return true
		}
	}
	return name == ""
}

func (d *DevProvider) Stat(subpath string) (Stat, error) {
	name := d.name(subpath)
	if name == "" {
		return Stat{Name: "/", IsDir: true, Mode: 0o555}, nil
	}
	if !d.Exists(subpath) {
		return Stat{}, ErrNotExist
	}
	mode := uint32(0o444)
	if name == "null" || name == "clipboard" {
		mode = 0o666
	}
	size := int64(0)
	if name == "zero" || name == "random" || name == "urandom" {
		size = devBufSize
	}
	if name == "clipboard" {
		size = int64(len(d.clipboard))
	}
	return Stat{Name: name, IsDir: false, Mode: mode, Size: size}, nil
}

func (d *DevProvider) Readdir(subpath string) ([]string, error) {
	if d.name(subpath) != "" {
		return nil, ErrNotDir
	}
	return append([]string(nil), devLeaves...), nil
}
