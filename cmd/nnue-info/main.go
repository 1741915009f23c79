// Command nnue-info prints the header of network files and whether they
// match the architecture compiled into this build.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hailam/nnue/nnue"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("nnue-info: ")
	flag.Parse()

	if flag.NArg() == 0 {
		net := nnue.NewNetwork(nnue.NewFeatureSet())
		fmt.Printf("built-in architecture:\n")
		fmt.Printf("  version %#08x hash %#08x\n", nnue.Version, net.GetHashValue())
		fmt.Printf("  %s\n", net.StructureString())
		return
	}

	exit := 0
	for _, filename := range flag.Args() {
		h, ok, err := nnue.Info(filename)
		if err != nil {
			log.Print(err)
			exit = 1
			continue
		}
		status := "compatible"
		if !ok {
			status = "INCOMPATIBLE"
			exit = 1
		}
		fmt.Printf("%s: version %#08x hash %#08x (%s)\n", filename, h.Version, h.Hash, status)
		fmt.Printf("  %s\n", h.Description)
	}
	os.Exit(exit)
}
