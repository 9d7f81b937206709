// Package fs provides filesystem abstractions for testability and fault injection.
//
// The operation log and the local snapshot store do all their file I/O
// through [FileSystem], so tests can swap in [FaultyFS] and simulate torn
// writes, failing fsyncs and failing closes.
//
// # Usage
//
// Production code uses fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests inject [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.SetLimit(1024) // fail after 1KB written across all files
//	ffs.AddRule(".wal", fs.Fault{FailOnSync: true})
//
// Operations take no context.Context. Local file operations are not
// interruptible at the syscall level; remote storage lives behind
// blobstore.BlobStore, which does take a context.
package fs
