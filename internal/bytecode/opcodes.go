// Package bytecode defines the decoded instruction set that the interpreter
// dispatches over. Everything here is already decoded: the binary package
// reader that turns the wire format into these structures is treated as an
// external collaborator and lives outside this module.
package bytecode

// OpCode identifies the operation a decoded Instruction performs.
type OpCode byte

const (
	// Stack manipulation
	OpPushConst OpCode = iota
	OpPop
	OpDup
	OpSwap
	OpPackTuple // pack top N stack values into a Tuple
	OpUnpack    // spread a Tuple/composite onto the stack

	// Arithmetic / logical / bitwise / comparison
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShr
	OpNeg

	// Binding
	OpDefine      // x := value, defines in current scope
	OpAssign      // x = value, strong-typed assign to an existing binding
	OpLoadName    // static load: stops at the function frame boundary
	OpLoadNameDyn // dynamic load: continues into capture and caller chain

	// Composite construction
	OpMakeKeyVal
	OpMakeNamed
	OpMakeRange
	OpMakeWrapper
	OpMakeLazyFilter
	OpMakeLambda // A: entry index; B bit 0 set: static lambda. Pops the capture (Null for none) and the params tuple

	// Member / index
	OpGetMember
	OpSetMember
	OpGetIndex
	OpSetIndex

	// Call
	OpCall

	// Control flow
	OpJump
	OpJumpIfFalse
	OpEnterFrame
	OpLeaveFrame
	OpEnterBoundary // operand: offset to the instruction right after the matching OpLeaveBoundary
	OpLeaveBoundary
	OpRaise
	OpReturn
	OpEmit
	OpBreak    // carries a value out of the nearest loop-like block
	OpContinue // carries a value into the next loop iteration

	// Value plumbing
	OpBindObject  // bind: attaches self to a lambda
	OpAttachAlias // a :: v
	OpWipeAlias   // wipe v
	OpCopy
	OpDeepCopy
	OpCollectFilter // realize a LazyFilter into a Tuple

	// Concurrency
	OpSpawnTask
	OpAwaitTask

	// Reflection
	OpTypeOf
	OpAliasOf
	OpKeyOf
	OpValueOf
	OpCaptureOf
	OpLengthOf
	OpAssert
)

var opNames = map[OpCode]string{
	OpPushConst:      "PUSH_CONST",
	OpPop:            "POP",
	OpDup:            "DUP",
	OpSwap:           "SWAP",
	OpPackTuple:      "PACK_TUPLE",
	OpUnpack:         "UNPACK",
	OpAdd:            "ADD",
	OpSub:            "SUB",
	OpMul:            "MUL",
	OpDiv:            "DIV",
	OpMod:            "MOD",
	OpPow:            "POW",
	OpEqual:          "EQUAL",
	OpLess:           "LESS",
	OpGreater:        "GREATER",
	OpLessEqual:      "LESS_EQUAL",
	OpGreaterEqual:   "GREATER_EQUAL",
	OpAnd:            "AND",
	OpOr:             "OR",
	OpXor:            "XOR",
	OpNot:            "NOT",
	OpShl:            "SHL",
	OpShr:            "SHR",
	OpNeg:            "NEG",
	OpDefine:         "DEFINE",
	OpAssign:         "ASSIGN",
	OpLoadName:       "LOAD_NAME",
	OpLoadNameDyn:    "LOAD_NAME_DYN",
	OpMakeKeyVal:     "MAKE_KEYVAL",
	OpMakeNamed:      "MAKE_NAMED",
	OpMakeRange:      "MAKE_RANGE",
	OpMakeWrapper:    "MAKE_WRAPPER",
	OpMakeLazyFilter: "MAKE_LAZY_FILTER",
	OpMakeLambda:     "MAKE_LAMBDA",
	OpGetMember:      "GET_MEMBER",
	OpSetMember:      "SET_MEMBER",
	OpGetIndex:       "GET_INDEX",
	OpSetIndex:       "SET_INDEX",
	OpCall:           "CALL",
	OpJump:           "JUMP",
	OpJumpIfFalse:    "JUMP_IF_FALSE",
	OpEnterFrame:     "ENTER_FRAME",
	OpLeaveFrame:     "LEAVE_FRAME",
	OpEnterBoundary:  "ENTER_BOUNDARY",
	OpLeaveBoundary:  "LEAVE_BOUNDARY",
	OpRaise:          "RAISE",
	OpReturn:         "RETURN",
	OpEmit:           "EMIT",
	OpBreak:          "BREAK",
	OpContinue:       "CONTINUE",
	OpBindObject:     "BIND",
	OpAttachAlias:    "ATTACH_ALIAS",
	OpWipeAlias:      "WIPE_ALIAS",
	OpCopy:           "COPY",
	OpDeepCopy:       "DEEP_COPY",
	OpCollectFilter:  "COLLECT",
	OpSpawnTask:      "SPAWN_TASK",
	OpAwaitTask:      "AWAIT_TASK",
	OpTypeOf:         "TYPEOF",
	OpAliasOf:        "ALIASOF",
	OpKeyOf:          "KEYOF",
	OpValueOf:        "VALUEOF",
	OpCaptureOf:      "CAPTUREOF",
	OpLengthOf:       "LENGTHOF",
	OpAssert:         "ASSERT",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN_OP"
}
