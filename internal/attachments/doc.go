// Package attachments is an optional S3-backed blob store for the
// Email entity's attachment bytes, adapted from the teacher's
// agent.S3Storage.
package attachments
