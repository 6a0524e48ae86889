package commands

import (
	"context"
	"fmt"

	"code.byted.org/khicago/prefstore"
)

const typeHelp = "value type: string|bool|int|int64|float|strings"

// getTyped prints the stored value through its handle. The second return
// reports whether the key was set at all; unset keys are not an error here
// so callers can decide how to phrase it.
func getTyped[T any](ctx context.Context, p *prefstore.Pref[T]) (string, bool, error) {
	ok, err := p.IsSet(ctx)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return fmt.Sprint(p.Get(ctx)), true, nil
}

// watchTyped streams emissions to stdout until the context ends.
func watchTyped[T any](ctx context.Context, p *prefstore.Pref[T]) error {
	ch, err := p.Watch(ctx)
	if err != nil {
		return err
	}
	for v := range ch {
		fmt.Println(v)
	}
	return nil
}
