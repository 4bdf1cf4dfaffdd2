// Command meshplot is an operator-side diagnostic tool: it renders a
// pointing-mesh calibration table (internal/mountmodel.MeshTable) to PNG,
// out of scope for the real-time core itself (spec §1 names config-file
// parsing and the CLI UI as external collaborators).
package main

import (
	"flag"
	"log"

	"github.com/rockit-astro/superwasp-talon/internal/meshplot"
	"github.com/rockit-astro/superwasp-talon/internal/mountmodel"
)

func main() {
	meshPath := flag.String("mesh", "", "path to the mesh table file (empty uses the identity mesh)")
	haOut := flag.String("ha-out", "mesh_ha.png", "output path for the HA residual plot")
	decOut := flag.String("dec-out", "mesh_dec.png", "output path for the Dec residual plot")
	flag.Parse()

	mesh := mountmodel.IdentityMesh()
	if *meshPath != "" {
		var err error
		mesh, err = mountmodel.LoadMeshTable(*meshPath)
		if err != nil {
			log.Fatalf("meshplot: load mesh table: %v", err)
		}
	}

	if err := meshplot.MeshPlots(mesh, *haOut, *decOut); err != nil {
		log.Fatalf("meshplot: render: %v", err)
	}
	log.Printf("meshplot: wrote %s and %s", *haOut, *decOut)
}
