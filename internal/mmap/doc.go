// Package mmap maps artifact files read-only into memory.
//
// A Mapping backs blobstore.LocalStore blobs so the feature matrix can be
// decoded straight from the page cache without an intermediate copy.
//
//	m, err := mmap.Open("features.f32")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.AdviseSequential()
//	data := m.Bytes()
//
// On Unix the file is mapped with mmap(2). Other platforms fall back to
// reading the file into memory; AdviseSequential is a no-op there.
//
// Bytes must not be used after Close.
package mmap
