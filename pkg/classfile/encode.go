package classfile

import (
	"encoding/binary"
	"io"
)

// Encode writes class out in the format Load/parse expect. It exists
// to build small in-memory fixtures in tests without hand-assembling
// byte slices.
func Encode(w io.Writer, class *Class) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := writeU16(w, uint16(len(class.Pool))); err != nil {
		return err
	}
	for _, c := range class.Pool {
		if err := encodeConstant(w, c); err != nil {
			return err
		}
	}
	if err := writeU16(w, uint16(len(class.Methods))); err != nil {
		return err
	}
	for _, m := range class.Methods {
		if err := encodeMethod(w, class, m); err != nil {
			return err
		}
	}
	return nil
}

func encodeConstant(w io.Writer, c Constant) error {
	if err := writeU8(w, uint8(c.Tag)); err != nil {
		return err
	}
	switch c.Tag {
	case TagInteger:
		return writeU32(w, uint32(c.IntValue))
	case TagUtf8:
		return writeUtf8(w, c.Utf8Value)
	case TagMethodRef:
		if err := writeU16(w, c.NameIndex); err != nil {
			return err
		}
		return writeU16(w, c.DescriptorIndex)
	}
	return nil
}

// encodeMethod writes a method's name/descriptor as u16 indices of the
// first TagUtf8 pool entries holding those strings, which is how Load
// reads them back; it fails if either string has no such entry. To
// keep fixture construction simple, NewBuilder (builder.go) interns
// both strings automatically.
func encodeMethod(w io.Writer, class *Class, m Method) error {
	nameIdx, descIdx, err := internedIndices(class, m)
	if err != nil {
		return err
	}
	if err := writeU16(w, nameIdx); err != nil {
		return err
	}
	if err := writeU16(w, descIdx); err != nil {
		return err
	}
	if err := writeU16(w, m.MaxStack); err != nil {
		return err
	}
	if err := writeU16(w, m.MaxLocals); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(m.Code))); err != nil {
		return err
	}
	_, err = w.Write(m.Code)
	return err
}

func internedIndices(class *Class, m Method) (nameIdx, descIdx uint16, err error) {
	for i, c := range class.Pool {
		if c.Tag == TagUtf8 && c.Utf8Value == m.Name && nameIdx == 0 {
			nameIdx = uint16(i + 1)
		}
		if c.Tag == TagUtf8 && c.Utf8Value == m.Descriptor && descIdx == 0 {
			descIdx = uint16(i + 1)
		}
	}
	if nameIdx == 0 || descIdx == 0 {
		return 0, 0, errNoInternedString
	}
	return nameIdx, descIdx, nil
}

func writeU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUtf8(w io.Writer, s string) error {
	if err := writeU16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}
