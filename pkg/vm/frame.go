package vm

import (
	"classvm/pkg/classfile"
	"classvm/pkg/diagnostic"
)

// Result is the optional value a method invocation produces: either
// void, or a 32-bit int (array-returning methods also use Int, where
// the value is a heap reference).
type Result struct {
	HasValue bool
	Value    int32
}

// Void is the Result of a method that returned with no value.
var Void = Result{}

// IntResult wraps v as a present Result.
func IntResult(v int32) Result {
	return Result{HasValue: true, Value: v}
}

// frame is the per-invocation execution context: program counter,
// locals, and operand stack. A frame is strictly scoped to a single
// invocation; its stack storage is released when the invoke call that
// created it returns.
type frame struct {
	pc     uint32
	locals []int32
	stack  *operandStack
	method *classfile.Method
	class  *classfile.Class
}

func newFrame(method *classfile.Method, locals []int32, class *classfile.Class) *frame {
	return &frame{
		locals: locals,
		stack:  newOperandStack(method.MaxStack),
		method: method,
		class:  class,
	}
}

func (f *frame) local(idx byte) int32 {
	if int(idx) >= len(f.locals) {
		panic(diagnostic.Fatalf("local variable index %d out of range (%d locals)", idx, len(f.locals)))
	}
	return f.locals[idx]
}

func (f *frame) setLocal(idx byte, v int32) {
	if int(idx) >= len(f.locals) {
		panic(diagnostic.Fatalf("local variable index %d out of range (%d locals)", idx, len(f.locals)))
	}
	f.locals[idx] = v
}
