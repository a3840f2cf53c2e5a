// Package dirwatch implements a marker sensor backed by a drop directory.
//
// Producers write one event per file. JSON, YAML and TOML are accepted:
//
//	{"type": "added", "id": "1b4e28ba-2fa1-11d2-883f-0016d3cca427", "content": "hello"}
//
//	type: removed
//	id: 1b4e28ba-2fa1-11d2-883f-0016d3cca427
//
// WithPattern narrows the accepted file names with a doublestar glob.
// Access is granted when the directory exists and can be listed. Once
// started, files already present are delivered in name order, then new
// files as fsnotify reports them. Consumed files are deleted unless
// WithConsume(false) is given. Use Writer to publish files atomically.
package dirwatch
