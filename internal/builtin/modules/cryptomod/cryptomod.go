// Package cryptomod wires golang.org/x/crypto/bcrypt into the runtime.
// The golang.org/x/crypto dependency is otherwise only
// pulled in transitively by its SSH/TLS network stack; bcrypt is the
// concrete, minimal slice of that dependency a guest script can safely
// call directly.
package cryptomod

import (
	"errors"

	"sentra/internal/builtin"

	"golang.org/x/crypto/bcrypt"
)

// Register adds `hash_password(s)` and `check_password(s, hash)`.
func Register(reg *builtin.Registry) {
	mod := builtin.NewModule("crypto")

	mod.Register("hash_password", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		s, ok := stringArg(args, 0)
		if !ok {
			return builtin.Null, errors.New("hash_password requires one String argument")
		}
		h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
		if err != nil {
			return builtin.Null, err
		}
		return heap.NewString(string(h)), nil
	})

	mod.Register("check_password", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		s, ok := stringArg(args, 0)
		hash, ok2 := stringArg(args, 1)
		if !ok || !ok2 {
			return builtin.Null, errors.New("check_password requires two String arguments")
		}
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(s))
		return heap.NewBool(err == nil), nil
	})

	reg.RegisterModule(mod, "hash_password", "check_password")
}

func stringArg(args builtin.GenericRef, i int) (string, bool) {
	if !builtin.IsTuple(args) || builtin.TupleLen(args) <= i {
		return "", false
	}
	v := builtin.TupleGet(args, i)
	if !builtin.IsString(v) {
		return "", false
	}
	return builtin.GetStringValue(v), true
}
