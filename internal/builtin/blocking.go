package builtin

import (
	"context"
	"time"

	"sentra/internal/errors"
	"sentra/internal/value"
)

// sleepCallable implements the `sleep(seconds)` built-in: a native call
// that waits for the requested duration without touching the value model.
// With a pool the wait runs as a pool Job, and the interpreter goroutine
// waits for that Job to finish; without one it calls time.Sleep on the
// interpreter goroutine directly. Either way no other task runs during the
// wait.
func sleepCallable(r *Registry) value.NativeCallable {
	return func(args *value.Object) (*value.Object, *value.OpError) {
		secs, err := sleepArg(args)
		if err != nil {
			return nil, err
		}
		d := time.Duration(secs * float64(time.Second))
		if d < 0 {
			return nil, &value.OpError{Kind: errors.ArgumentError, Message: "sleep duration must be non-negative"}
		}

		if r.pool == nil {
			time.Sleep(d)
			return value.NewNull(), nil
		}
		if err := r.pool.Sleep(context.Background(), d); err != nil {
			return nil, &value.OpError{Kind: errors.IOError, Message: err.Error()}
		}
		return value.NewNull(), nil
	}
}

func sleepArg(args *value.Object) (float64, *value.OpError) {
	vals := argsSlice(args)
	if len(vals) == 0 {
		return 0, &value.OpError{Kind: errors.ArgumentError, Message: "sleep requires one numeric argument"}
	}
	v := vals[0]
	switch v.Kind {
	case value.KindInt:
		return float64(v.I), nil
	case value.KindFloat:
		return v.F, nil
	default:
		return 0, &value.OpError{Kind: errors.ArgumentError, Message: "sleep argument must be Int or Float"}
	}
}
