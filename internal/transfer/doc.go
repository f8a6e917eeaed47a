// Package transfer moves recordings between the remote media store and the
// local staging tree.
//
// Three backends implement Channel: an SSH/SFTP connection, an S3-compatible
// bucket, and a locally mounted directory. Every failure is tagged with
// services.ErrTransfer. Network operations are never retried.
package transfer
