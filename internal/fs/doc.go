// Package fs abstracts the file operations of the local blob store so tests
// can inject I/O faults.
//
// Production code uses Default ([LocalFS]). Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("records", fs.Fault{FailAfterBytes: 1024})
package fs
