package api

// swagger:model api.DiagnosticResponse
type DiagnosticResponse struct {
	MessageFromConfigMap string `json:"messageFromConfigMap" example:"No ConfigMap"`
	SecretPassword       string `json:"secretPassword" example:"No Secret"`
	PodName              string `json:"podName,omitempty" example:"web-0"`
	PVFileContent        string `json:"pvFileContent" example:"File not found"`
}
