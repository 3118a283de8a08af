package revisions

type CreateRevisionRequest struct {
	Description string `json:"description"`
}

type CleanupRequest struct {
	KeepCount *int `json:"keep_count"`
}

type MarkRestorableRequest struct {
	RestoreAvailable *bool `json:"restore_available" binding:"required"`
}
