package signals_test

import (
	"fmt"

	"github.com/dmitrymomot/plotkit/pkg/signals"
)

func ExampleRegistry() {
	reg := signals.New()

	_, _ = reg.Connect("draw", func(frame int) {
		fmt.Println("drawing frame", frame)
	})
	_, _ = reg.Connect("draw", func(frame int) {
		fmt.Println("updating toolbar for frame", frame)
	})

	_ = reg.Process("draw", 42)

	// Output:
	// drawing frame 42
	// updating toolbar for frame 42
}

func ExampleRegistry_Block() {
	reg := signals.New()

	_, _ = reg.Connect("draw", func() {
		fmt.Println("draw")
	})

	restore := reg.Block("draw")
	_ = reg.Process("draw") // suppressed
	restore()

	_ = reg.Process("draw")

	// Output:
	// draw
}
