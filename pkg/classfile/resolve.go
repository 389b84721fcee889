package classfile

import "strings"

// FindMethod returns the method with an exact name and descriptor match,
// or false if none exists.
func FindMethod(class *Class, name, descriptor string) (*Method, bool) {
	for i := range class.Methods {
		m := &class.Methods[i]
		if m.Name == name && m.Descriptor == descriptor {
			return m, true
		}
	}
	return nil, false
}

// FindMethodFromIndex resolves a 1-based constant-pool index that must
// name a TagMethodRef entry, then looks up the method it names by
// name and descriptor.
func FindMethodFromIndex(class *Class, index uint16) (*Method, bool) {
	ref, err := class.constant(index)
	if err != nil || ref.Tag != TagMethodRef {
		return nil, false
	}
	name, err := class.utf8(ref.NameIndex)
	if err != nil {
		return nil, false
	}
	descriptor, err := class.utf8(ref.DescriptorIndex)
	if err != nil {
		return nil, false
	}
	return FindMethod(class, name, descriptor)
}

// NumParameters derives a method's arity from its descriptor string by
// counting parameter slots between '(' and ')'. Each 'I' (int) or "[I"
// (int array reference) counts as one slot; any other type byte is
// invalid for this engine (Non-goal: no float/long/object parameters).
func NumParameters(descriptor string) uint16 {
	open := strings.IndexByte(descriptor, '(')
	close := strings.IndexByte(descriptor, ')')
	if open < 0 || close < 0 || close < open {
		return 0
	}

	var n uint16
	params := descriptor[open+1 : close]
	for i := 0; i < len(params); i++ {
		switch params[i] {
		case '[':
			// Array marker; the element type byte that follows still
			// counts as a single slot, so just skip the marker.
			continue
		case 'I':
			n++
		}
	}
	return n
}
