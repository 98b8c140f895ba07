package handlers

type BindingItem struct {
	CollectionID string `json:"collectionId"`
	Path         string `json:"path"`
}

type BindingsResponse struct {
	Bindings []BindingItem `json:"bindings"`
}

type UpdateBindingRequest struct {
	// Path is the vault folder relative to the vault root. Empty unbinds.
	Path string `json:"path"`
}
