//go:build !wasm

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tinywasm/sqliter/ormc"
)

func main() {
	g := ormc.New()
	if len(os.Args) > 1 {
		g.SetRootDir(os.Args[1])
	}
	g.SetLog(func(messages ...any) {
		fmt.Fprintln(os.Stderr, messages...)
	})
	if err := g.Run(); err != nil {
		log.Fatalf("ormc: %v", err)
	}
}
