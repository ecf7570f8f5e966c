// Package files discovers CDE export files for batch runs.
//
// Text exports (.txt, .tsv, .csv) and workbooks (.xlsx) are recognized by
// extension; everything else in a directory is ignored.
//
//	d := files.NewDiscovery(paths.BaseDir)
//	exports, err := d.FindExports("data/exports")
package files
