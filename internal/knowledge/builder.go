// Package knowledge builds the persona prompt handed to the conversational
// avatar for a session.
package knowledge

import (
	"fmt"
	"strings"

	"github.com/vitalcall/consult/internal/shared"
)

// Merge strategies for caller-supplied knowledge.
const (
	MergeAppend  = "append"
	MergeReplace = "replace"
)

// Config customises the built prompt. The zero value, and a nil *Config,
// produce the default persona.
type Config struct {
	KnowledgeBase  *string `json:"knowledge_base,omitempty"`
	MergeStrategy  string  `json:"merge_strategy,omitempty"`
	InjectUserName *bool   `json:"inject_user_name,omitempty"`
}

// Validate rejects unknown merge strategies.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch c.MergeStrategy {
	case "", MergeAppend, MergeReplace:
		return nil
	default:
		return shared.BadRequest(fmt.Sprintf("knowledge.merge_strategy must be %q or %q", MergeAppend, MergeReplace), nil)
	}
}

func (c *Config) strategy() string {
	if c == nil || c.MergeStrategy == "" {
		return MergeAppend
	}
	return c.MergeStrategy
}

func (c *Config) injectNames() bool {
	return c == nil || c.InjectUserName == nil || *c.InjectUserName
}

// Build returns the persona prompt for agentName talking to userName. The
// output depends only on its arguments.
func Build(userName, agentName string, cfg *Config) string {
	persona := interpolate(personaTemplate, userName, agentName)

	if cfg == nil || cfg.KnowledgeBase == nil || strings.TrimSpace(*cfg.KnowledgeBase) == "" {
		return persona
	}

	extra := strings.TrimSpace(*cfg.KnowledgeBase)
	if cfg.injectNames() {
		extra = interpolate(extra, userName, agentName)
	}

	if cfg.strategy() == MergeReplace {
		return interpolate(identityHeader, userName, agentName) + "\n\n" + extra
	}
	return persona + "\n\nADDITIONAL KNOWLEDGE:\n" + extra
}

func interpolate(text, userName, agentName string) string {
	return strings.NewReplacer("{user_name}", userName, "{agent_name}", agentName).Replace(text)
}
