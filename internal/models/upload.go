package models

// FileUpload carries one uploaded file through a single request. It is never
// persisted; the workflow discards it when the request completes.
type FileUpload struct {
	FileName string `json:"file_name"`
	Content  []byte `json:"-"`
}

// Empty reports whether no usable file was submitted.
func (f *FileUpload) Empty() bool {
	return f == nil || len(f.Content) == 0
}
