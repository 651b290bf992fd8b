// Public domain.

package main

import "github.com/soniakeys/wdlf/internal/wdprog"

func main() {
	wdprog.Main()
}
