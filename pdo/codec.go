package pdo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrBufferSize is returned when a buffer does not match a region size.
var ErrBufferSize = errors.New("pdo: buffer size does not match region size")

var byteOrder = binary.LittleEndian

func marshal(fs []field, size int) []byte {
	buf := make([]byte, size)
	offset := 0

	for _, f := range fs {
		switch f.typ() {
		case TypeFloat64:
			byteOrder.PutUint64(buf[offset:], math.Float64bits(*f.f64))
		case TypeUint32:
			byteOrder.PutUint32(buf[offset:], *f.u32)
		case TypeUint8:
			buf[offset] = *f.u8
		}
		offset += f.typ().Size()
	}

	return buf
}

func unmarshal(fs []field, size int, data []byte) error {
	if len(data) != size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(data), size)
	}

	offset := 0
	for _, f := range fs {
		switch f.typ() {
		case TypeFloat64:
			*f.f64 = math.Float64frombits(byteOrder.Uint64(data[offset:]))
		case TypeUint32:
			*f.u32 = byteOrder.Uint32(data[offset:])
		case TypeUint8:
			*f.u8 = data[offset]
		}
		offset += f.typ().Size()
	}

	return nil
}

// MarshalBinary encodes the sensor region in wire layout.
func (s Sensors) MarshalBinary() ([]byte, error) {
	return marshal(s.fields(), SensorsSize), nil
}

// UnmarshalBinary overwrites every sensor channel from data.
func (s *Sensors) UnmarshalBinary(data []byte) error {
	var decoded Sensors

	err := unmarshal(decoded.fields(), SensorsSize, data)
	if err != nil {
		return err
	}

	*s = decoded

	return nil
}

// MarshalBinary encodes the command region in wire layout.
func (c Commands) MarshalBinary() ([]byte, error) {
	return marshal(c.fields(), CommandsSize), nil
}

// UnmarshalBinary overwrites every command channel from data. Unknown control
// modes are rejected.
func (c *Commands) UnmarshalBinary(data []byte) error {
	var decoded Commands

	err := unmarshal(decoded.fields(), CommandsSize, data)
	if err != nil {
		return err
	}

	for i, m := range decoded.Mode {
		if !m.Valid() {
			return fmt.Errorf("pdo: motor %s has invalid mode %d", MotorNames[i], m)
		}
	}

	*c = decoded

	return nil
}

// MarshalBinary encodes the sensor region followed by the command region.
func (img Image) MarshalBinary() ([]byte, error) {
	s, _ := img.Sensors.MarshalBinary()
	c, _ := img.Commands.MarshalBinary()

	return append(s, c...), nil
}

// UnmarshalBinary decodes an image produced by Image.MarshalBinary.
func (img *Image) UnmarshalBinary(data []byte) error {
	if len(data) != SensorsSize+CommandsSize {
		return fmt.Errorf("%w: got %d bytes, want %d",
			ErrBufferSize, len(data), SensorsSize+CommandsSize)
	}

	var decoded Image
	if err := decoded.Sensors.UnmarshalBinary(data[:SensorsSize]); err != nil {
		return err
	}

	if err := decoded.Commands.UnmarshalBinary(data[SensorsSize:]); err != nil {
		return err
	}

	*img = decoded

	return nil
}
