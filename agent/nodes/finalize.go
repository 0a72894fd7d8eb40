package orchestratornode

import (
	"encoding/json"
	"fmt"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

func FinalizeDirect(in *GraphState) (GraphOutput, error) {
	if in == nil || in.First == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	return GraphOutput{Response: contractx.ChatResponse{Message: in.First.Content}}, nil
}

// FinalizeAfterTool reports the tool result as the same JSON the model saw.
func FinalizeAfterTool(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Final == nil || in.Call == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	name := in.Call.Function.Name
	return GraphOutput{Response: contractx.ChatResponse{
		Message:    in.Final.Content,
		ToolCalled: &name,
		ToolResult: json.RawMessage(in.ResultJSON),
	}}, nil
}
