package contract

import "errors"

var (
	ErrUnknownContext  = errors.New("agent not found for context")
	ErrInvalidMessage  = errors.New("message history is invalid")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrToolNotFound    = errors.New("tool not found")
	ErrToolArguments   = errors.New("tool arguments are invalid")
	ErrToolExecution   = errors.New("tool execution failed")
	ErrUnauthorized    = errors.New("caller is not authorized")
	ErrValidation      = errors.New("validation failed")
)

// FallbackMessage is the only failure text shown to end users.
const FallbackMessage = "Desculpe, ocorreu um erro ao processar sua mensagem. Tente novamente."
