// Package export walks mesh sets and produces triangle soup for file
// output. One triangle batch is produced per mesh, fan-triangulated,
// so downstream viewers see each manifold as a separate shell.
package export

import (
	"fmt"

	"github.com/ForeverDavid/carve/pkg/mesh"
	"github.com/deadsy/sdfx/render"
)

// Triangulate fan-triangulates every face of the mesh set and returns
// the triangles in mesh order then face order. Faces are assumed
// convex; a face with n edges contributes n-2 triangles sharing its
// first ring vertex.
func Triangulate(ms *mesh.MeshSet) []*render.Triangle3 {
	var tris []*render.Triangle3
	for _, m := range ms.Meshes {
		tris = append(tris, TriangulateMesh(m)...)
	}
	return tris
}

// TriangulateMesh fan-triangulates the faces of a single mesh.
func TriangulateMesh(m *mesh.Mesh) []*render.Triangle3 {
	tris := make([]*render.Triangle3, 0, 2*len(m.Faces))
	for _, f := range m.Faces {
		base := f.Edge.Vert.V
		e := f.Edge.Next
		for e.Next != f.Edge {
			tris = append(tris, &render.Triangle3{base, e.Vert.V, e.Next.Vert.V})
			e = e.Next
		}
	}
	return tris
}

// SaveSTL writes the mesh set to path as an STL file. Open meshes are
// exported as-is; their holes simply appear in the output.
func SaveSTL(path string, ms *mesh.MeshSet) error {
	tris := Triangulate(ms)
	if len(tris) == 0 {
		return fmt.Errorf("export %q: mesh set has no faces", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("export %q: %w", path, err)
	}
	return nil
}
