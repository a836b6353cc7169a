// Package mesh implements the half-edge mesh core of the carve CSG
// library: construction of faces from vertex loops, stitching of
// independent faces into edge-connected meshes, and the MeshSet owning
// container that consolidates vertex storage across meshes.
//
// The stitcher pairs opposing half-edges across faces, resolves
// complex incidences (three or more half-edges meeting along the same
// vertex pair) by sorting the incident faces angularly around the
// shared line, and partitions faces into connected components. Meshes
// that fail to close are reported as open, never as errors; the caller
// decides whether an open mesh is acceptable.
package mesh
