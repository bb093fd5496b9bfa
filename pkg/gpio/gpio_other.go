//go:build !linux

package gpio

import "fmt"

// Open is unsupported off Linux; use MockLine instead.
func Open(chip string, offset int) (Line, error) {
	return nil, fmt.Errorf("gpio: gpiochip access not supported on this platform")
}
