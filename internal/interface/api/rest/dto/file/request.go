package file

type UpdateRequest struct {
	Name *string `json:"name"`
	Path *string `json:"path"`
	Size *uint64 `json:"size"`
}
