package http

// generateRequest is decoded without binding tags; presence is checked by
// the workflow so that every missing-field case maps to one response.
type generateRequest struct {
	UserID       string `json:"user_id"`
	SkillName    string `json:"skill_name"`
	CurrentLevel string `json:"current_level"`
}

type successResponse struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	DownloadURL      string `json:"download_url"`
	NewCreditBalance int64  `json:"new_credit_balance"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
