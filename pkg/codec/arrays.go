package codec

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/graingraph/graingraph/pkg/errors"
)

// EncodeInts serializes an integer array.
func EncodeInts(v []int64) ([]byte, error) {
	if v == nil {
		v = []int64{}
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode int array")
	}
	return b, nil
}

// DecodeInts is the inverse of [EncodeInts]. Malformed input is an
// INVALID_FORMAT error.
func DecodeInts(b []byte) ([]int64, error) {
	var v []int64
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode int array")
	}
	if v == nil {
		v = []int64{}
	}
	return v, nil
}

// EncodeFloats serializes a float array.
func EncodeFloats(v []float64) ([]byte, error) {
	if v == nil {
		v = []float64{}
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode float array")
	}
	return b, nil
}

// DecodeFloats is the inverse of [EncodeFloats].
func DecodeFloats(b []byte) ([]float64, error) {
	var v []float64
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode float array")
	}
	if v == nil {
		v = []float64{}
	}
	return v, nil
}
