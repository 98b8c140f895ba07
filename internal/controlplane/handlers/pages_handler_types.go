package handlers

type DownloadPageResponse struct {
	Code     string `json:"code"`
	RecordID string `json:"recordId"`
	Path     string `json:"path"`
}

type UploadFileRequest struct {
	Path string `json:"path" binding:"required"`
}

type UploadFileResponse struct {
	Code     string `json:"code"`
	RecordID string `json:"recordId"`
	Path     string `json:"path"`
}
