package classfile

import "errors"

var errNoInternedString = errors.New("classfile: method name or descriptor has no matching Utf8 pool entry")

// Builder assembles an in-memory Class for tests and tooling without
// requiring callers to manage constant-pool indices by hand.
type Builder struct {
	class Class
	utf8  map[string]uint16 // interned Utf8 value -> 1-based pool index
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{utf8: make(map[string]uint16)}
}

// intern returns the 1-based pool index for s, adding a new TagUtf8
// entry the first time s is seen.
func (b *Builder) intern(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	b.class.Pool = append(b.class.Pool, Constant{Tag: TagUtf8, Utf8Value: s})
	idx := uint16(len(b.class.Pool))
	b.utf8[s] = idx
	return idx
}

// AddInteger appends an Integer constant and returns its 1-based pool
// index, suitable for an ldc operand.
func (b *Builder) AddInteger(v int32) uint16 {
	b.class.Pool = append(b.class.Pool, Constant{Tag: TagInteger, IntValue: v})
	return uint16(len(b.class.Pool))
}

// AddMethodRef interns name and descriptor, appends a MethodRef
// constant naming them, and returns its 1-based pool index, suitable
// for an invokestatic operand.
func (b *Builder) AddMethodRef(name, descriptor string) uint16 {
	ref := Constant{
		Tag:             TagMethodRef,
		NameIndex:       b.intern(name),
		DescriptorIndex: b.intern(descriptor),
	}
	b.class.Pool = append(b.class.Pool, ref)
	return uint16(len(b.class.Pool))
}

// AddMethod appends a method, interning its name and descriptor so
// Encode can later resolve them back to pool indices.
func (b *Builder) AddMethod(name, descriptor string, maxStack, maxLocals uint16, code []byte) {
	b.intern(name)
	b.intern(descriptor)
	b.class.Methods = append(b.class.Methods, Method{
		Name:       name,
		Descriptor: descriptor,
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Code:       code,
	})
}

// Build returns the assembled Class.
func (b *Builder) Build() *Class {
	return &b.class
}
