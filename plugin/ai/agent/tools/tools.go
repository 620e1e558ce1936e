package tools

import (
	"github.com/hrygo/lexagent/plugin/ai/agent"
	"github.com/hrygo/lexagent/plugin/ai/vector"
	"github.com/hrygo/lexagent/plugin/drafter"
)

// Deps are the backends the legal tools run against. A nil backend leaves
// its tool registered but answering that it is unavailable.
type Deps struct {
	Retriever vector.Retriever
	Searcher  WebSearcher
	Drafter   *drafter.Drafter
}

// LegalTools returns the tool set offered to the legal assistant.
func LegalTools(deps Deps) []agent.ToolWithSchema {
	tools := []agent.ToolWithSchema{
		NewRetrievalTool(deps.Retriever),
		NewWebSearchTool(deps.Searcher),
	}
	if deps.Drafter != nil {
		tools = append(tools, NewDraftTool(deps.Drafter))
	}
	return tools
}
