package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Record is one embedded document.
type Record struct {
	ISBN13 int64
	// Text is the tagged description the vector was computed from.
	Text   string
	Vector []float32
}

// encodeRecord lays a record out as: uint32 dimension, dimension little-endian float32s, text bytes.
func encodeRecord(r Record) []byte {
	buf := make([]byte, 4+4*len(r.Vector)+len(r.Text))
	binary.LittleEndian.PutUint32(buf, uint32(len(r.Vector)))
	off := 4
	for _, v := range r.Vector {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	copy(buf[off:], r.Text)
	return buf
}

// decodeRecord parses a value written by encodeRecord. val is copied.
func decodeRecord(isbn13 int64, val []byte) (Record, error) {
	if len(val) < 4 {
		return Record{}, fmt.Errorf("record %d: truncated header", isbn13)
	}
	dim := int(binary.LittleEndian.Uint32(val))
	end := 4 + 4*dim
	if len(val) < end {
		return Record{}, fmt.Errorf("record %d: truncated vector (dimension %d, %d bytes)", isbn13, dim, len(val))
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(val[4+4*i:]))
	}
	return Record{ISBN13: isbn13, Text: string(val[end:]), Vector: vec}, nil
}

// decodeVector is decodeRecord without the text copy, for the search scan.
func decodeVector(val []byte, dst []float32) ([]float32, error) {
	if len(val) < 4 {
		return nil, fmt.Errorf("truncated header")
	}
	dim := int(binary.LittleEndian.Uint32(val))
	if len(val) < 4+4*dim {
		return nil, fmt.Errorf("truncated vector")
	}
	dst = dst[:0]
	for i := range dim {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(val[4+4*i:])))
	}
	return dst, nil
}

// recordText returns the text portion of an encoded record.
func recordText(val []byte) string {
	dim := int(binary.LittleEndian.Uint32(val))
	return string(val[4+4*dim:])
}
