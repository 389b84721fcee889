package classfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// magic is the 4-byte sentinel every class file must start with.
var magic = [4]byte{0xCA, 0xFE, 0xBA, 0xBE}

// Load opens path, parses its contents as a class file, and returns the
// parsed Class. All multi-byte fields are big-endian. maxCodeSize caps
// the code length a single method may declare; pass 0 for no limit.
func Load(path string, maxCodeSize int) (*Class, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("classfile: open %s: %w", path, err)
	}
	defer f.Close()

	class, err := parse(bufio.NewReader(f), maxCodeSize)
	if err != nil {
		return nil, fmt.Errorf("classfile: parse %s: %w", path, err)
	}
	return class, nil
}

func parse(r io.Reader, maxCodeSize int) (*Class, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("bad magic %x, expected %x", gotMagic, magic)
	}

	poolCount, err := readU16(r)
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}

	pool := make([]Constant, poolCount)
	for i := range pool {
		c, err := readConstant(r)
		if err != nil {
			return nil, fmt.Errorf("reading constant pool entry %d: %w", i+1, err)
		}
		pool[i] = c
	}

	methodCount, err := readU16(r)
	if err != nil {
		return nil, fmt.Errorf("reading method count: %w", err)
	}

	class := &Class{Pool: pool, Methods: make([]Method, methodCount)}
	for i := range class.Methods {
		m, err := readMethod(r, class, maxCodeSize)
		if err != nil {
			return nil, fmt.Errorf("reading method %d: %w", i, err)
		}
		class.Methods[i] = m
	}

	return class, nil
}

func readConstant(r io.Reader) (Constant, error) {
	tagByte, err := readU8(r)
	if err != nil {
		return Constant{}, err
	}

	switch ConstantTag(tagByte) {
	case TagInteger:
		v, err := readU32(r)
		if err != nil {
			return Constant{}, fmt.Errorf("reading integer constant: %w", err)
		}
		return Constant{Tag: TagInteger, IntValue: int32(v)}, nil
	case TagUtf8:
		s, err := readUtf8(r)
		if err != nil {
			return Constant{}, fmt.Errorf("reading utf8 constant: %w", err)
		}
		return Constant{Tag: TagUtf8, Utf8Value: s}, nil
	case TagMethodRef:
		nameIdx, err := readU16(r)
		if err != nil {
			return Constant{}, fmt.Errorf("reading method ref name index: %w", err)
		}
		descIdx, err := readU16(r)
		if err != nil {
			return Constant{}, fmt.Errorf("reading method ref descriptor index: %w", err)
		}
		return Constant{Tag: TagMethodRef, NameIndex: nameIdx, DescriptorIndex: descIdx}, nil
	default:
		return Constant{}, fmt.Errorf("unknown constant pool tag %d", tagByte)
	}
}

func readMethod(r io.Reader, class *Class, maxCodeSize int) (Method, error) {
	nameIdx, err := readU16(r)
	if err != nil {
		return Method{}, fmt.Errorf("reading name index: %w", err)
	}
	descIdx, err := readU16(r)
	if err != nil {
		return Method{}, fmt.Errorf("reading descriptor index: %w", err)
	}
	name, err := class.utf8(nameIdx)
	if err != nil {
		return Method{}, fmt.Errorf("resolving method name: %w", err)
	}
	descriptor, err := class.utf8(descIdx)
	if err != nil {
		return Method{}, fmt.Errorf("resolving method descriptor: %w", err)
	}

	maxStack, err := readU16(r)
	if err != nil {
		return Method{}, fmt.Errorf("reading max_stack: %w", err)
	}
	maxLocals, err := readU16(r)
	if err != nil {
		return Method{}, fmt.Errorf("reading max_locals: %w", err)
	}
	codeLen, err := readU32(r)
	if err != nil {
		return Method{}, fmt.Errorf("reading code length: %w", err)
	}
	if maxCodeSize > 0 && codeLen > uint32(maxCodeSize) {
		return Method{}, fmt.Errorf("method %q code length %d exceeds limit %d", name, codeLen, maxCodeSize)
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(r, code); err != nil {
		return Method{}, fmt.Errorf("reading code bytes: %w", err)
	}

	return Method{
		Name:       name,
		Descriptor: descriptor,
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Code:       code,
	}, nil
}

func readU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readUtf8(r io.Reader) (string, error) {
	length, err := readU16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
