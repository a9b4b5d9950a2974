package dto

type AskHistoryTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type AskRequest struct {
	Question string           `json:"question" validate:"required,min=1"`
	History  []AskHistoryTurn `json:"history" validate:"omitempty,dive"`
}

// AskResponse is the non-streamed fallback answer shape used by the REST
// endpoint. The websocket channel streams instead.
type AskResponse struct {
	Answer string `json:"answer"`
	HTML   string `json:"html"`
}
