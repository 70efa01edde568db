package jobs

import "github.com/emergent/storyboard-agent/internal/backend"

// ValidateRequest is the local fast-fail for a single generation: missing
// required selections are rejected before any network call and never
// retried automatically.
func ValidateRequest(req backend.GenerateRequest) error {
	if req.ClipID == "" {
		return &backend.ValidationError{Field: "clip_id", Message: "a clip must be selected"}
	}
	return validateShared(req.GenerationType, req.Prompt, req.Model, req.Provider, req.Server, req.ServerOnline)
}

// ValidateBatch applies the same preconditions to a batch submission.
func ValidateBatch(req backend.BatchGenerateRequest) error {
	if len(req.ClipIDs) == 0 {
		return &backend.ValidationError{Field: "clip_ids", Message: "at least one clip must be selected"}
	}
	return validateShared(req.GenerationType, req.Prompt, req.Model, req.Provider, req.Server, req.ServerOnline)
}

func validateShared(generationType, prompt, model, provider, server string, serverOnline bool) error {
	switch generationType {
	case backend.GenerationImage, backend.GenerationVideo:
	default:
		return &backend.ValidationError{Field: "generation_type", Message: "must be image or video"}
	}
	if prompt == "" {
		return &backend.ValidationError{Field: "prompt", Message: "prompt must not be empty"}
	}
	if model == "" {
		return &backend.ValidationError{Field: "model", Message: "a model must be selected"}
	}
	if provider == backend.ProviderComfyUI {
		if server == "" {
			return &backend.ValidationError{Field: "server", Message: "a ComfyUI server must be selected"}
		}
		if !serverOnline {
			return &backend.ValidationError{Field: "server", Message: "the selected ComfyUI server is offline"}
		}
	}
	return nil
}
