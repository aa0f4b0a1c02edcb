// internal/models/response.go
package models

// AgentResponse is the uniform envelope every agent returns and the
// chat endpoint serializes back to the client.
type AgentResponse struct {
	Success        bool                   `json:"success"`
	Message        string                 `json:"message"`
	Intent         Intent                 `json:"intent"`
	AgentName      string                 `json:"agent_name"`
	FollowUpNeeded bool                   `json:"follow_up_needed"`
	Data           map[string]interface{} `json:"data,omitempty"`
}
