// Package version carries the product version used in calendar PRODIDs and
// the synthetic git committer identity.
package version

const Version = "0.1.0"
