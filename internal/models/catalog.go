package models

import "time"

// FileSource describes where a stored file originated from.
type FileSource string

// FileSourceUserUpload marks files that are treated like an upload by the owning user.
const FileSourceUserUpload FileSource = "USER_UPLOAD"

// Tag is a catalog tag, unique by name.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// File is a stored blob known to the catalog.
type File struct {
	ID        string     `json:"id"`
	Filename  string     `json:"filename"`
	Name      string     `json:"name"`
	Size      int64      `json:"size"`
	MD5       string     `json:"md5"`
	MimeType  string     `json:"mimetype"`
	Source    FileSource `json:"source"`
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"created_at"`
}

// Series is a catalog series record created by an import.
type Series struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PubAt       *time.Time `json:"pub_at,omitempty"`
	Count       int        `json:"count"`
	UserID      int64      `json:"user_id"`
	Poster      *File      `json:"poster,omitempty"`
	Tags        []Tag      `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
}
