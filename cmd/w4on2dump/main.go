// Command w4on2dump disassembles a w4on2 score file to stdout: its
// header, every pattern's decoded event stream, and every track's
// pattern-ID sequence.
package main

import (
	"log"
	"os"

	"github.com/chriskillpack/w4on2"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("w4on2dump: ")

	if len(os.Args) <= 1 {
		log.Fatal("missing score filename")
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	score, err := w4on2.ParseScore(data)
	if err != nil {
		log.Fatal(err)
	}

	if err := score.Dump(os.Stdout); err != nil {
		log.Fatal(err)
	}
}
