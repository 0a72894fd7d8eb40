package prompt

import (
	"embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

//go:embed template/*.txt
var templates embed.FS

// PromptSet maps each agent context to its system prompt.
type PromptSet map[contractx.AgentContext]string

// LoadPromptSet reads one template per context. A missing or blank template
// is an error so a misbuilt binary fails at startup.
func LoadPromptSet() (PromptSet, error) {
	set := make(PromptSet, len(contractx.AllContexts()))
	for _, agentCtx := range contractx.AllContexts() {
		raw, err := templates.ReadFile("template/" + string(agentCtx) + ".txt")
		if err != nil {
			return nil, fmt.Errorf("%w: context=%s: %v", contractx.ErrPromptMissing, agentCtx, err)
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return nil, fmt.Errorf("%w: context=%s: template is empty", contractx.ErrPromptMissing, agentCtx)
		}
		set[agentCtx] = text
	}
	return set, nil
}

func MustLoadPromptSet() PromptSet {
	set, err := LoadPromptSet()
	if err != nil {
		panic(err)
	}
	return set
}

func (p PromptSet) For(agentCtx contractx.AgentContext) (string, error) {
	text, ok := p[agentCtx]
	if !ok || text == "" {
		return "", fmt.Errorf("%w: context=%s", contractx.ErrPromptMissing, agentCtx)
	}
	return text, nil
}
