// Package documents describes the files found in person directories: their
// checksum, MIME type, and document type inferred from the file name.
//
// StorageAdapter is the only surface the pipeline uses to touch document
// bytes. LocalAdapter implements it for a mounted filesystem. Classification
// looks only at file names; document contents are never inspected beyond
// hashing.
package documents
