package model

// Prompts holds the instruction texts used by the agent. Empty fields
// fall back to the built-in defaults.
type Prompts struct {
	Assistant    string `yaml:"assistant"`
	Validate     string `yaml:"validate"`
	ContinueChat string `yaml:"continue_chat"`
}
