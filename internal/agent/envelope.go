package agent

import "encoding/json"

// ToolResponse is the uniform envelope every tool invocation produces.
// Exactly one of ErrorMessage/SuccessMessage is populated, consistent
// with ExecutionSuccess. It is the only channel through which operation
// outcomes reach the planner.
type ToolResponse struct {
	ExecutionSuccess bool   `json:"execution_success"`
	ErrorMessage     string `json:"error_message,omitempty"`
	SuccessMessage   string `json:"success_message,omitempty"`
	OtherInfo        any    `json:"other_info,omitempty"`
}

// Success builds a success envelope. info carries the operation's
// structured payload and may be nil for pure mutations.
func Success(message string, info any) *ToolResponse {
	return &ToolResponse{
		ExecutionSuccess: true,
		SuccessMessage:   message,
		OtherInfo:        info,
	}
}

// Failure builds a failure envelope from a classified error.
func Failure(err error) *ToolResponse {
	return &ToolResponse{
		ExecutionSuccess: false,
		ErrorMessage:     err.Error(),
	}
}

// JSON renders the envelope for feeding back to the model as tool output.
func (r *ToolResponse) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		// OtherInfo payloads are plain structs and slices; marshal
		// failure would indicate a programming error upstream.
		return `{"execution_success":false,"error_message":"failed to encode tool response"}`
	}
	return string(data)
}
