// Package pkg provides static SQL analysis functionality for Go applications.
//
// slowql inspects SQL text without connecting to a database, reporting
// performance traps, unsafe operations and maintainability issues ranked by
// severity.
//
// # Package Structure
//
// The pkg directory contains several specialized packages:
//
//   - engine: High-level analysis API (recommended starting point)
//   - rules: The detection rule catalog and registration system
//   - segmenter: Statement splitting with comment and quote awareness
//   - tokenizer: Structural clause tokenization of single statements
//   - types: Core type definitions and data structures
//   - config: Configuration loading and management
//   - reporter: Terminal rendering of results
//   - export: JSON, YAML, CSV and HTML report serialization
//   - logger: Logging abstraction layer
//
// # Getting Started
//
// For most use cases, start with the engine package:
//
//	import "github.com/slowql/slowql/pkg/engine"
//
//	func main() {
//	    e := engine.New()
//	    result, err := e.Analyze(context.Background(), "DELETE FROM users;")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result)
//	}
package pkg
