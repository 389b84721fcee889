package vm

import (
	"fmt"
	"io"
	"os"

	"classvm/pkg/classfile"
	"classvm/pkg/diagnostic"
)

// defaultMaxCallDepth bounds invokestatic recursion so a runaway
// method exhausts this guard with a clean FatalVMError instead of
// crashing the host Go stack.
const defaultMaxCallDepth = 4096

// Invoker threads frames through the host call stack and owns the
// resources every frame shares: the class being executed, the
// reference heap, the print sink, and (optionally) an execution
// tracer. Exactly one frame executes at a time; invokestatic recurses
// through Invoker.invoke using ordinary Go call frames.
type Invoker struct {
	Class        *classfile.Class
	Heap         *Heap
	Stdout       io.Writer
	Tracer       Tracer
	MaxCallDepth int

	depth int
}

// NewInvoker returns an Invoker ready to run methods of class against
// heap, printing to os.Stdout.
func NewInvoker(class *classfile.Class, heap *Heap) *Invoker {
	return &Invoker{
		Class:        class,
		Heap:         heap,
		Stdout:       os.Stdout,
		MaxCallDepth: defaultMaxCallDepth,
	}
}

// Invoke runs method to completion and returns its result, converting
// any fatal VM condition raised during execution into an error. This
// is the only entry point that recovers: invokestatic recursion calls
// the unexported invoke directly, so a panic deep in a recursive call
// unwinds all the way back here before becoming an error.
func (inv *Invoker) Invoke(method *classfile.Method, locals []int32) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if dErr, ok := r.(*diagnostic.Error); ok {
				err = dErr
				return
			}
			panic(r)
		}
	}()
	result = inv.invoke(method, locals)
	return result, nil
}

// invoke allocates a frame, runs the decode/dispatch loop until the
// method returns, and releases the frame's operand stack. Fatal
// conditions are raised as panics carrying a *diagnostic.Error.
func (inv *Invoker) invoke(method *classfile.Method, locals []int32) Result {
	f := newFrame(method, locals, inv.Class)
	result := Void
	for f.pc < uint32(len(method.Code)) {
		if inv.Tracer != nil {
			inv.Tracer.Step(f.pc, method.Code[f.pc], f.stack.depth())
		}
		result = inv.dispatch(f)
	}
	return result
}

// dispatch decodes and executes exactly one instruction at f.pc,
// advancing f.pc according to the opcode's own width. It returns Void
// for every instruction except return/ireturn/areturn, whose result is
// what the enclosing invoke loop ultimately returns.
func (inv *Invoker) dispatch(f *frame) Result {
	code := f.method.Code
	opAt := f.pc
	op := Opcode(code[opAt])

	if !isValidOpcode(op) {
		panic(diagnostic.FatalAtf(opAt, byte(op), "unsupported opcode"))
	}

	switch op {
	case OpNop:
		f.pc = opAt + 1

	case OpIconstM1, OpIconst0, OpIconst1, OpIconst2, OpIconst3, OpIconst4, OpIconst5:
		f.stack.push(int32(op) - int32(OpIconst0))
		f.pc = opAt + 1
	case OpBipush:
		f.stack.push(readS8(code, opAt+1))
		f.pc = opAt + 2
	case OpSipush:
		f.stack.push(readS16(code, opAt+1))
		f.pc = opAt + 3
	case OpLdc:
		k := uint16(readU8(code, opAt+1))
		if v, ok := f.class.IntegerConstant(k); ok {
			f.stack.push(v)
		}
		f.pc = opAt + 2

	case OpIload, OpAload:
		f.stack.push(f.local(readU8(code, opAt+1)))
		f.pc = opAt + 2
	case OpIload0, OpIload1, OpIload2, OpIload3:
		f.stack.push(f.local(byte(op - OpIload0)))
		f.pc = opAt + 1
	case OpAload0, OpAload1, OpAload2, OpAload3:
		f.stack.push(f.local(byte(op - OpAload0)))
		f.pc = opAt + 1
	case OpIstore, OpAstore:
		f.setLocal(readU8(code, opAt+1), f.stack.pop())
		f.pc = opAt + 2
	case OpIstore0, OpIstore1, OpIstore2, OpIstore3:
		f.setLocal(byte(op-OpIstore0), f.stack.pop())
		f.pc = opAt + 1
	case OpAstore0, OpAstore1, OpAstore2, OpAstore3:
		f.setLocal(byte(op-OpAstore0), f.stack.pop())
		f.pc = opAt + 1

	case OpIadd:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a + b)
		f.pc = opAt + 1
	case OpIsub:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a - b)
		f.pc = opAt + 1
	case OpImul:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a * b)
		f.pc = opAt + 1
	case OpIdiv:
		b, a := f.stack.pop(), f.stack.pop()
		if b == 0 {
			panic(diagnostic.FatalAtf(opAt, byte(op), "division by zero"))
		}
		f.stack.push(a / b)
		f.pc = opAt + 1
	case OpIrem:
		b, a := f.stack.pop(), f.stack.pop()
		if b == 0 {
			panic(diagnostic.FatalAtf(opAt, byte(op), "division by zero"))
		}
		f.stack.push(a % b)
		f.pc = opAt + 1
	case OpIneg:
		f.stack.push(-f.stack.pop())
		f.pc = opAt + 1
	case OpIshl:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a << (uint32(b) & 0x1f))
		f.pc = opAt + 1
	case OpIshr:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a >> (uint32(b) & 0x1f))
		f.pc = opAt + 1
	case OpIushr:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(int32(uint32(a) >> (uint32(b) & 0x1f)))
		f.pc = opAt + 1
	case OpIand:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a & b)
		f.pc = opAt + 1
	case OpIor:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a | b)
		f.pc = opAt + 1
	case OpIxor:
		b, a := f.stack.pop(), f.stack.pop()
		f.stack.push(a ^ b)
		f.pc = opAt + 1
	case OpIinc:
		idx := readU8(code, opAt+1)
		delta := readS8(code, opAt+2)
		f.setLocal(idx, f.local(idx)+delta)
		f.pc = opAt + 3

	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle:
		v := f.stack.pop()
		f.pc = branchPC(opAt, readS16(code, opAt+1), compareToZero(op, v))
	case OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple:
		b, a := f.stack.pop(), f.stack.pop()
		f.pc = branchPC(opAt, readS16(code, opAt+1), compareInts(op, a, b))
	case OpGoto:
		f.pc = branchPC(opAt, readS16(code, opAt+1), true)

	case OpGetstatic:
		f.pc = opAt + 3
	case OpInvokevirtual:
		v := f.stack.pop()
		fmt.Fprintf(inv.Stdout, "%d\n", v)
		f.pc = opAt + 3
	case OpInvokestatic:
		return inv.invokeStatic(f, opAt)

	case OpReturn:
		f.pc = uint32(len(code))
		return Void
	case OpIreturn, OpAreturn:
		v := f.stack.pop()
		f.pc = uint32(len(code))
		return IntResult(v)

	case OpNewarray:
		t := readU8(code, opAt+1)
		if t != 10 {
			panic(diagnostic.FatalAtf(opAt, byte(op), "unsupported newarray type %d", t))
		}
		count := f.stack.pop()
		f.stack.push(inv.Heap.NewArray(count))
		f.pc = opAt + 2
	case OpArraylength:
		f.stack.push(inv.Heap.Length(f.stack.pop()))
		f.pc = opAt + 1
	case OpIaload:
		idx, ref := f.stack.pop(), f.stack.pop()
		f.stack.push(inv.Heap.Load(ref, idx))
		f.pc = opAt + 1
	case OpIastore:
		val, idx, ref := f.stack.pop(), f.stack.pop(), f.stack.pop()
		inv.Heap.Store(ref, idx, val)
		f.pc = opAt + 1
	case OpDup:
		v := f.stack.pop()
		f.stack.push(v)
		f.stack.push(v)
		f.pc = opAt + 1

	default:
		panic(diagnostic.FatalAtf(opAt, byte(op), "unsupported opcode"))
	}

	return Void
}

// invokeStatic resolves the callee named by the 2-byte constant-pool
// index at opAt+1, transfers arguments, recurses through inv.invoke,
// and pushes any int result.
func (inv *Invoker) invokeStatic(f *frame, opAt uint32) Result {
	code := f.method.Code
	k := readU16(code, opAt+1)

	callee, ok := classfile.FindMethodFromIndex(f.class, k)
	if !ok {
		panic(diagnostic.FatalAtf(opAt, byte(OpInvokestatic), "invokestatic: bad method index %d", k))
	}

	n := int(classfile.NumParameters(callee.Descriptor))
	locals := make([]int32, callee.MaxLocals)
	for i := n - 1; i >= 0; i-- {
		locals[i] = f.stack.pop()
	}

	inv.depth++
	if inv.MaxCallDepth > 0 && inv.depth > inv.MaxCallDepth {
		inv.depth--
		panic(diagnostic.FatalAtf(opAt, byte(OpInvokestatic), "call depth exceeded %d", inv.MaxCallDepth))
	}
	result := inv.invoke(callee, locals)
	inv.depth--

	if result.HasValue {
		f.stack.push(result.Value)
	}
	f.pc = opAt + 3
	return Void
}

// branchPC returns the opcode's own address plus the stored offset
// when taken holds, and the address just past the 3-byte instruction
// otherwise.
func branchPC(opAt uint32, offset int32, taken bool) uint32 {
	if !taken {
		return opAt + 3
	}
	return uint32(int64(opAt) + int64(offset))
}

func compareToZero(op Opcode, v int32) bool {
	switch op {
	case OpIfeq:
		return v == 0
	case OpIfne:
		return v != 0
	case OpIflt:
		return v < 0
	case OpIfge:
		return v >= 0
	case OpIfgt:
		return v > 0
	case OpIfle:
		return v <= 0
	default:
		panic(diagnostic.Fatalf("compareToZero: not a comparison opcode %v", op))
	}
}

func compareInts(op Opcode, a, b int32) bool {
	switch op {
	case OpIfIcmpeq:
		return a == b
	case OpIfIcmpne:
		return a != b
	case OpIfIcmplt:
		return a < b
	case OpIfIcmpge:
		return a >= b
	case OpIfIcmpgt:
		return a > b
	case OpIfIcmple:
		return a <= b
	default:
		panic(diagnostic.Fatalf("compareInts: not a comparison opcode %v", op))
	}
}
