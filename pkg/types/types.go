package types

import "time"

// File describes a stored result as listed to clients.
type File struct {
	Name    string    `json:"name"`
	Size    string    `json:"size"`
	Bytes   int64     `json:"bytes"`
	ModTime time.Time `json:"modTime"`
}
