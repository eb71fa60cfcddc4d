package langmodel

import (
	"context"
	"log/slog"
)

// GenerateStream works like Generate but returns a read-only channel that
// receives each generated character as it is sampled. The seed itself is not
// sent. The channel is closed once length characters were sent, generation
// reaches a dead end, or the context is cancelled.
//
// Precondition errors are returned immediately. When nothing can be
// generated from the seed, the returned channel is already closed.
//
// A dead end cannot be reported through the channel. With WithDeadEndError
// it is logged at warn level instead.
func (m *Model) GenerateStream(ctx context.Context, seed string, length int, opts ...GenerateOption) (<-chan rune, error) {
	window, err := m.initialWindow(seed, length)
	if err != nil {
		return nil, err
	}
	charChan := make(chan rune)
	if window == nil {
		close(charChan)
		return charChan, nil
	}
	options := m.newGenerateOptions(opts)

	go func() {
		defer close(charChan)

		for generated := 0; generated < length; generated++ {
			key := string(window)
			table, ok := m.tables[key]
			if !ok {
				level := slog.LevelDebug
				if options.deadEndError {
					level = slog.LevelWarn
				}
				m.logger.Log(ctx, level, "Generation stream terminated due to dead-end",
					slog.String("last_window", key),
					slog.Int("generated_length", generated),
					slog.Int("requested_length", length),
				)
				return
			}

			c := table.Sample(m.nextDraw(options))
			select {
			case <-ctx.Done():
				m.logger.DebugContext(ctx, "Generation stream cancelled by context")
				return
			case charChan <- c:
			}

			// Shift the window and add the new character.
			copy(window, window[1:])
			window[len(window)-1] = c
		}
	}()

	return charChan, nil
}
