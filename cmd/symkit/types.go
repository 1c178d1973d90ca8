package main

// CLIResult is the top-level JSON envelope for every command.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIIndexStats summarizes an index run.
type CLIIndexStats struct {
	Root      string `json:"root"`
	Database  string `json:"database"`
	Indexed   int    `json:"indexed"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
	Symbols   int    `json:"symbols"`
	Duration  string `json:"duration"`
}

// CLIName is a symbol with its fully-qualified metadata name. Truncated is
// set when a container could not be named and QualifiedName stops short.
type CLIName struct {
	ID            int64  `json:"id,omitempty"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	QualifiedName string `json:"qualified_name"`
	Truncated     bool   `json:"truncated,omitempty"`
	Reason        string `json:"reason,omitempty"`
	File          string `json:"file,omitempty"`
	StartLine     int    `json:"start_line"`
	StartCol      int    `json:"start_col"`
}

// CLINode is a syntax node with its normalized text. Lines and columns are
// 0-based.
type CLINode struct {
	Kind      string `json:"kind"`
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	Text      string `json:"text"`
}
