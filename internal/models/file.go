// Package models defines shared data types that cross package boundaries.
package models

import "time"

// FileMetadata describes a file in a theme source tree without its content.
type FileMetadata struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}
