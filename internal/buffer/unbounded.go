package buffer

// Unbounded creates a channel buffer that grows as needed, so producers never
// block on a slow consumer. Writes go to in, reads come from out.
//
// initialCap sizes the backing slice. Once hardLimit items are queued the
// oldest is dropped and passed to onDrop (which may be nil). Closing in flushes
// what is queued and then closes out.
//
// Usage:
//
//	in, out := buffer.Unbounded[func()](64, 10000, nil)
//	in <- job
//	(<-out)()
func Unbounded[T any](initialCap, hardLimit int, onDrop func(T)) (chan<- T, <-chan T) {
	in := make(chan T, 16)
	out := make(chan T, 16)

	go func() {
		defer close(out)

		queue := make([]T, 0, initialCap)

		for {
			// Only offer to out while something is queued.
			var head T
			var downstream chan<- T
			if len(queue) > 0 {
				head = queue[0]
				downstream = out
			}

			select {
			case v, ok := <-in:
				if !ok {
					for _, item := range queue {
						out <- item
					}
					return
				}
				if hardLimit > 0 && len(queue) >= hardLimit {
					if onDrop != nil {
						onDrop(queue[0])
					}
					var zero T
					queue[0] = zero
					queue = queue[1:]
				}
				queue = append(queue, v)

			case downstream <- head:
				var zero T
				queue[0] = zero
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
