package bytecode

// DebugInfo stores source location for a single decoded instruction.
type DebugInfo struct {
	File   string
	Line   int
	Column int
	Span   int
}

// ConstKind tags an entry of the constant pool.
type ConstKind byte

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBytes
	ConstNull
)

// Const is one immutable primitive entry of a code object's constant pool.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Str   string
	Bytes []byte
}

func IntConst(v int64) Const      { return Const{Kind: ConstInt, Int: v} }
func FloatConst(v float64) Const  { return Const{Kind: ConstFloat, Float: v} }
func StringConst(v string) Const  { return Const{Kind: ConstString, Str: v} }
func BytesConst(v []byte) Const   { return Const{Kind: ConstBytes, Bytes: v} }
func NullConst() Const            { return Const{Kind: ConstNull} }

// Instruction is one decoded opcode plus its inline operand region. Operands
// are small integers: constant-pool indices, jump offsets, operand counts.
// Which fields are meaningful depends on Op; see opcodes.go.
type Instruction struct {
	Op    OpCode
	A, B  int
	Debug DebugInfo
}

// Instructions is a code object: a decoded instruction stream plus its
// constant pool, named entry points, and optional debug table. It is
// immutable once constructed, matching the data-model invariant that code
// objects never mutate after load.
type Instructions struct {
	Code      []Instruction
	Constants []Const
	Entries   map[string]int // entry point name -> instruction index, "__main__" is implicit root
}

// NewInstructions builds an empty, appendable code object. Code objects
// compiled by an external front end should populate the fields directly;
// this constructor and the Emit helpers exist for tests and for bootstrapping
// small programs without a compiler.
func NewInstructions() *Instructions {
	return &Instructions{
		Code:      []Instruction{},
		Constants: []Const{},
		Entries:   map[string]int{"__main__": 0},
	}
}

func (ins *Instructions) Emit(op OpCode, a, b int) int {
	ins.Code = append(ins.Code, Instruction{Op: op, A: a, B: b})
	return len(ins.Code) - 1
}

func (ins *Instructions) EmitDebug(op OpCode, a, b int, dbg DebugInfo) int {
	ins.Code = append(ins.Code, Instruction{Op: op, A: a, B: b, Debug: dbg})
	return len(ins.Code) - 1
}

func (ins *Instructions) AddConstant(c Const) int {
	ins.Constants = append(ins.Constants, c)
	return len(ins.Constants) - 1
}

func (ins *Instructions) Patch(ip int, a int) {
	ins.Code[ip].A = a
}

func (ins *Instructions) Len() int { return len(ins.Code) }

func (ins *Instructions) At(ip int) (Instruction, bool) {
	if ip < 0 || ip >= len(ins.Code) {
		return Instruction{}, false
	}
	return ins.Code[ip], true
}

func (ins *Instructions) EntryOffset(name string) (int, bool) {
	off, ok := ins.Entries[name]
	return off, ok
}
