package sinks

import (
	"context"
	"errors"
	"fmt"
)

type opener func(ctx context.Context, cfg Config, log Logger) (Sink, error)

var openers = map[string]opener{
	TypeHTTP:   openHTTP,
	TypeSQS:    openSQS,
	TypeSNS:    openSNS,
	TypePubSub: openPubSub,
}

// Open connects every configured sink. If one fails, those already opened are closed.
func Open(ctx context.Context, cfgs []Config, log Logger) (*Fanout, error) {
	if log == nil {
		log = nopLogger{}
	}

	f := &Fanout{}
	for _, cfg := range cfgs {
		open, ok := openers[cfg.Type]
		if !ok {
			return nil, errors.Join(fmt.Errorf("sink %q: unsupported type %q", cfg.ID, cfg.Type), f.Close())
		}
		s, err := open(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open sink %q: %w", cfg.ID, err), f.Close())
		}
		f.Add(s, cfg.Ops...)
	}
	return f, nil
}
