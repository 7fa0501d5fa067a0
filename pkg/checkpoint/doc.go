// Package checkpoint persists grain graphs by time step.
//
// An [Archive] lays out its data under the root "/CheckPoints" of a
// [store.Backend]:
//
//	/CheckPoints/EdgeIndex/<t>/row     int64 array
//	/CheckPoints/EdgeIndex/<t>/col     int64 array
//	/CheckPoints/GrainConnections/<t>  flattened adjacency stream
//	/CheckPoints/GrainVolumes/<t>      float64 array, one value per grain
//	/CheckPoints/GrainNeighbors/<t>    int64 array, one value per grain
//	/CheckPoints/Run                   run metadata
//
// Each time step is an independent snapshot. Steps are written as plain
// decimal keys; when reading, the spellings "t_<n>" and "t<n>" written by the
// simulation's checkpoint routine are accepted as well.
//
// The coordinate list and the adjacency list of one step are written and read
// independently, so a reader can decode either without the other and then
// cross-check them with package verify.
//
// Missing namespaces and steps are reported as [errors.NotFoundError], which
// lists the steps that do exist.
package checkpoint
