package storage

const (
	DefaultInfoFile = "info.json"

	DefaultImageExt  = ".bmp"
	DefaultResultExt = ".json"

	DefaultFilePerm = 0660
	DefaultDirPerm  = 0750
)
