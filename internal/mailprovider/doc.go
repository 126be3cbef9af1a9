// Package mailprovider defines the narrow outbound-send interface and
// an SES v2-backed implementation, adapted from the teacher's internal/ses
// client construction.
package mailprovider
