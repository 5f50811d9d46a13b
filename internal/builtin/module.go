package builtin

import (
	"fmt"
	"strings"

	"sentra/internal/errors"
	"sentra/internal/memory"
	"sentra/internal/value"

	pkgerrors "github.com/pkg/errors"
)

// NativeFn is the signature a loaded native module's individual callable
// has: it receives the call's argument tuple as a generic reference
// and a heap handle, and returns a generic reference (or a Go error, which
// is wrapped into an IOError/ModuleError the same way any other Go-level
// failure crossing into the value model is).
type NativeFn func(args GenericRef, heap *HeapHandle) (GenericRef, error)

// LookupFn is the symbol-resolution callback a module stores at load time,
// matching the "module_entry(lookup_fn) -> module_handle" convention.
type LookupFn func(symbol string) (NativeFn, bool)

// Module is a loaded native module: a symbol table plus the two required
// entry points. Host code builds one with NewModule, registers its
// callables with Register, then exposes it to guest code via AsValue.
type Module struct {
	name    string
	symbols map[string]NativeFn
	onClose func()
}

// NewModule constructs an empty native module named for diagnostics; the
// name has no effect on symbol resolution, which is always the lambda's
// first alias.
func NewModule(name string) *Module {
	return &Module{name: name, symbols: make(map[string]NativeFn)}
}

// Register binds signature (the lambda alias a guest callable is reached
// through) to fn. Equivalent to the module storing fn under
// symbol("callable_" + signature) at module_entry time.
func (m *Module) Register(signature string, fn NativeFn) {
	m.symbols[signature] = fn
}

// OnDestroy sets the function called once by Destroy, mirroring
// module_destroy() being invoked before unload.
func (m *Module) OnDestroy(fn func()) { m.onClose = fn }

// Destroy runs the module's module_destroy() hook, if any. The runtime
// never unloads a native module mid-program; this exists so a host that
// manages its own process lifetime can call it at shutdown.
func (m *Module) Destroy() {
	if m.onClose != nil {
		m.onClose()
	}
}

// lookup adapts Register'd NativeFns into the value.NativeCallable shape
// the interpreter's call dispatch (vm.callNative) already expects: a plain
// Go function from the call's argument tuple to a result value or
// *value.OpError. This is where the GenericRef/HeapHandle bridge actually
// gets crossed on every native call.
func (m *Module) lookup(h *memory.Heap) func(symbol string) (value.NativeCallable, bool) {
	return func(symbol string) (value.NativeCallable, bool) {
		fn, ok := m.symbols[symbol]
		if !ok {
			fn, ok = m.symbols[strings.TrimPrefix(symbol, "callable_")]
		}
		if !ok {
			return nil, false
		}
		return func(args *value.Object) (*value.Object, *value.OpError) {
			handle := newHeapHandle(h)
			out, err := fn(ref(args), handle)
			if err != nil {
				return nil, toOpError(err)
			}
			if !out.Valid() {
				return value.NewNull(), nil
			}
			return out.data, nil
		}, true
	}
}

// toOpError lifts a native module's Go error into the operator-failure
// shape the interpreter already knows how to raise, preserving
// pkg/errors-wrapped context in the message: a stack-annotated %+v rather
// than a bare .Error() string.
func toOpError(err error) *value.OpError {
	return &value.OpError{Kind: errors.IOError, Message: fmt.Sprintf("%+v", pkgerrors.Wrap(err, "native module call failed"))}
}

// AsValue builds the guest-visible NativeModule value for this module, and
// the "callable_<signature>" Lambda that resolves to one of its
// registered signatures. Every returned Lambda carries the signature as
// its single alias and "callable_" + signature as its Symbol, which the
// module's lookup resolves back to the Register'd signature.
func (m *Module) AsValue(h *memory.Heap, signature string) (*value.Object, bool) {
	if _, ok := m.symbols[signature]; !ok {
		return nil, false
	}
	natObj := value.NewNativeModule(m, m.lookup(h))
	h.Alloc(natObj)
	h.Retain(natObj)

	lam := &value.LambdaData{
		Params:     h.Alloc(value.NewTuple(nil)),
		NativeBody: natObj,
		Symbol:     "callable_" + signature,
		Static:     true,
	}
	h.Retain(lam.Params)
	plain := value.NewLambda(lam)
	aliased := value.WithAlias(plain, signature)
	h.Alloc(aliased)
	h.Retain(aliased)
	return aliased, true
}
