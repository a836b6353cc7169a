// Command carve evaluates a carve script and reports the meshes it
// builds. With -stl the stitched set is also written as a triangle
// mesh.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ForeverDavid/carve/pkg/engine"
	"github.com/ForeverDavid/carve/pkg/export"
	"github.com/ForeverDavid/carve/pkg/mesh"
)

func main() {
	stlPath := flag.String("stl", "", "write the stitched meshes to this STL file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: carve [flags] script.carve\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("read script: %v", err)
	}

	set, evalErrs, err := engine.NewEngine().Evaluate(string(source))
	if err != nil {
		log.Fatalf("evaluate: %v", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", flag.Arg(0), e.Error())
		}
		os.Exit(1)
	}

	printStats(set)

	if *stlPath != "" {
		if err := export.SaveSTL(*stlPath, set); err != nil {
			log.Fatalf("export: %v", err)
		}
		fmt.Printf("wrote %s (%d triangles)\n", *stlPath, len(export.Triangulate(set)))
	}
}

func printStats(set *mesh.MeshSet) {
	fmt.Printf("%d mesh(es), %d vertices\n", len(set.Meshes), len(set.VertexStorage))
	for i, m := range set.Meshes {
		state := "open"
		if m.IsClosed() {
			state = "closed"
		}
		if m.IsNegative() {
			state = "closed, negative"
		}
		fmt.Printf("mesh %d: %d faces, %d closed edges, %d open edges (%s)\n",
			i, len(m.Faces), len(m.ClosedEdges), len(m.OpenEdges), state)
		if m.IsClosed() {
			fmt.Printf("  volume %g\n", m.Volume())
		}
		bb := m.AABB()
		fmt.Printf("  bounds (%g %g %g) to (%g %g %g)\n",
			bb.Min.X, bb.Min.Y, bb.Min.Z, bb.Max.X, bb.Max.Y, bb.Max.Z)
	}
}
