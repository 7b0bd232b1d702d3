package module

import "errors"

// ErrWrongArgCount is returned by Callable.Invoke when a Method callable
// is invoked with no receiver argument.
var ErrWrongArgCount = errors.New("module: wrong argument count for method call")

// ErrNotInvocable is returned by Callable.Invoke for Iterator and Script
// callables, which require their own dedicated call path (the evaluator
// walks an Iterator directly and dispatches Script via the evaluator's
// own recursive eval, not through Invoke).
var ErrNotInvocable = errors.New("module: callable kind is not directly invocable")
