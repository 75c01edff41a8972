package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadDocument reads the configuration document shared by all commands.
//
// The same document configures writers and readers:
//
//	storage:
//	  type: slatedb
//	  path: events
//	  object_store:
//	    type: local
//	    path: ./data
//	segmentation:
//	  seal_interval_ms: 1000
//	refresh_interval_ms: 100
func loadDocument(opts *RootOptions) (map[string]any, error) {
	if opts.Config == "" {
		return defaultDocument(opts.DataDir), nil
	}

	data, err := os.ReadFile(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read config", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parse config %s", opts.Config), err)
	}
	if doc == nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("config %s is empty", opts.Config))
	}
	return doc, nil
}

func defaultDocument(dataDir string) map[string]any {
	return map[string]any{
		"storage": map[string]any{
			"type": "slatedb",
			"path": "log",
			"object_store": map[string]any{
				"type": "local",
				"path": dataDir,
			},
		},
	}
}
