package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
	promptx "github.com/tanpawarit/talent-assistant/agent/prompt"
	"github.com/tanpawarit/talent-assistant/agent/tool"
)

type unusedRepository struct {
	datastore.Repository
}

func newTestCatalog(t *testing.T, opts ...Option) (*Catalog, error) {
	t.Helper()
	registry, err := tool.Build(unusedRepository{})
	require.NoError(t, err)
	return New(promptx.MustLoadPromptSet(), registry, opts...)
}

func TestEveryContextHasAName(t *testing.T) {
	t.Parallel()

	c, err := newTestCatalog(t)
	require.NoError(t, err)

	for _, agentCtx := range contractx.AllContexts() {
		info, err := c.Info(agentCtx)
		require.NoError(t, err, agentCtx)
		assert.NotEmpty(t, info.Name, agentCtx)
		assert.Equal(t, agentCtx, info.Context)
	}
	assert.Len(t, c.List(), len(contractx.AllContexts()))
}

func TestLookupResolvesToolsAndPrompt(t *testing.T) {
	t.Parallel()

	c, err := newTestCatalog(t)
	require.NoError(t, err)

	def, err := c.Lookup(contractx.ContextCandidates)
	require.NoError(t, err)
	assert.NotEmpty(t, def.SystemPrompt)
	assert.True(t, def.HasTool("search_candidates"))
	assert.False(t, def.HasTool("approve_school"))

	payments, err := c.Lookup(contractx.ContextPayments)
	require.NoError(t, err)
	assert.True(t, payments.HasTool(tool.ToolCalculateAmount))
}

func TestLookupUnknownContext(t *testing.T) {
	t.Parallel()

	c, err := newTestCatalog(t)
	require.NoError(t, err)

	_, err = c.Lookup("marketing")
	assert.ErrorIs(t, err, contractx.ErrUnknownContext)

	_, err = c.SuggestedQuestions("")
	assert.ErrorIs(t, err, contractx.ErrUnknownContext)
}

func TestSuggestedQuestionsIsIdempotent(t *testing.T) {
	t.Parallel()

	c, err := newTestCatalog(t)
	require.NoError(t, err)

	first, err := c.SuggestedQuestions(contractx.ContextJobs)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	first[0] = "mutated by caller"

	second, err := c.SuggestedQuestions(contractx.ContextJobs)
	require.NoError(t, err)
	third, err := c.SuggestedQuestions(contractx.ContextJobs)
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.NotEqual(t, "mutated by caller", second[0])
}

const minimalAgents = `
schools: {name: Escolas, tools: [search_schools]}
companies: {name: Empresas}
jobs: {name: Vagas}
candidates: {name: Candidatos}
applications: {name: Candidaturas}
contracts: {name: Contratos}
payments: {name: Pagamentos}
feedback: {name: Avaliações}
`

func TestSuggestedQuestionsEmptyIsNotNil(t *testing.T) {
	t.Parallel()

	c, err := newTestCatalog(t, WithDefinitions([]byte(minimalAgents)))
	require.NoError(t, err)

	questions, err := c.SuggestedQuestions(contractx.ContextFeedback)
	require.NoError(t, err)
	assert.NotNil(t, questions)
	assert.Empty(t, questions)
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing context": `schools: {name: Escolas}`,
		"unknown context": minimalAgents + "marketing: {name: Marketing}\n",
		"blank name":      `schools: {name: "  "}`,
		"unknown tool": `
schools: {name: Escolas, tools: [delete_everything]}
companies: {name: Empresas}
jobs: {name: Vagas}
candidates: {name: Candidatos}
applications: {name: Candidaturas}
contracts: {name: Contratos}
payments: {name: Pagamentos}
feedback: {name: Avaliações}
`,
		"duplicate tool": `
schools: {name: Escolas, tools: [search_schools, search_schools]}
companies: {name: Empresas}
jobs: {name: Vagas}
candidates: {name: Candidatos}
applications: {name: Candidaturas}
contracts: {name: Contratos}
payments: {name: Pagamentos}
feedback: {name: Avaliações}
`,
		"unknown field": `schools: {name: Escolas, color: blue}`,
	}

	for name, raw := range tests {
		_, err := newTestCatalog(t, WithDefinitions([]byte(raw)))
		assert.ErrorIs(t, err, contractx.ErrValidation, name)
	}
}
