// Package pkg provides the core libraries for neatgraph automatic layout.
//
// # Overview
//
// Neatgraph computes node positions and edge routes for node-and-edge
// diagrams. A host diagram model is converted into a layout descriptor, an
// engine (graphviz) solves it, and the resulting geometry is mapped back onto
// the diagram. The pkg directory is organized into three main areas:
//
//  1. [diagram], [layout] - Domain logic (host model, adapter, engine, presets)
//  2. [cache], [store], [config] - Infrastructure (results cache, documents, config)
//  3. [pipeline], [batch] - Orchestration (staged runs, cooperative batching)
//
// # Architecture
//
// The typical data flow through neatgraph:
//
//	Diagram JSON
//	         ↓
//	    [diagram] package (host graph model)
//	         ↓
//	    [layout] package (descriptor conversion + preset selection)
//	         ↓
//	    [layout/graphviz] package (DOT generation + engine run)
//	         ↓
//	    [layout] package (reverse mapping + apply)
//	         ↓
//	    Positioned diagram, SVG/PNG/DOT/JSON output
//
// # Quick Start
//
// Lay out a diagram and render it:
//
//	import (
//	    "context"
//	    "github.com/neatgraph/neatgraph/pkg/diagram"
//	    "github.com/neatgraph/neatgraph/pkg/layout"
//	    "github.com/neatgraph/neatgraph/pkg/layout/graphviz"
//	    "github.com/neatgraph/neatgraph/pkg/pipeline"
//	)
//
//	g, _ := diagram.ReadGraphFile("diagram.json")
//
//	engine := graphviz.New()
//	layouter := layout.New(engine, layout.Config{})
//	runner := pipeline.NewRunner(layouter, engine, nil, nil, nil)
//	defer runner.Close()
//
//	result, _ := runner.Execute(context.Background(), g, pipeline.Options{
//	    Preset:  "flowchart",
//	    Formats: []string{"svg"},
//	})
//	_ = result.Artifacts["svg"]
//
// # Main Packages
//
// ## Domain Logic
//
// [diagram] - The host graph model: mutable nodes, edges, positions, sizes,
// vertex routes, and JSON serialization with file helpers.
//
// [layout] - The engine adapter. Converts diagrams to layout descriptors,
// merges preset and override directives, invokes the engine (optionally
// through a warmed background worker), maps results back, and applies
// geometry to the live diagram with optional easing. Includes the preset
// table and the density policy that picks presets from measured traits.
//
// [layout/graphviz] - The bundled engine: descriptor to DOT source, WASM
// graphviz execution, plain-format output parsing, and SVG/PNG rendering.
//
// ## Infrastructure
//
// [cache] - Layout result caching. FileCache for the CLI, RedisCache for the
// server, NullCache to disable, with hash-based key builders and retry
// helpers for startup races.
//
// [store] - Saved diagram documents for the HTTP API. MemoryStore for tests
// and development, SQLiteStore for single-process deployments, MongoStore for
// shared ones.
//
// [config] - Server and pipeline configuration: defaults, TOML/YAML/JSON file
// layers picked by extension, environment overrides for addresses and
// secrets, validation.
//
// [observability] - Hook interfaces for pipeline, cache, and engine events
// with no-op defaults. Backends (prometheus, otel) register at the edges so
// library code stays dependency-free.
//
// [errors] - Coded errors shared by the API and CLI boundaries, plus input
// validation for document ids and names.
//
// [buildinfo] - Version information injected via ldflags.
//
// ## Orchestration
//
// [pipeline] - The staged select → layout → apply → render runner used by the
// CLI and API: option validation, caching, stats, and artifact rendering.
//
// [batch] - Cooperative batch processing for large diagrams: sequential
// batches with progress callbacks and a pluggable yield point between
// batches, plus merge-by-policy accumulation and index generators.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
//	go test -run Example       # Examples only
//
// [diagram]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/diagram
// [layout]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/layout
// [layout/graphviz]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/layout/graphviz
// [cache]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/cache
// [store]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/store
// [config]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/config
// [observability]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/pipeline
// [batch]: https://pkg.go.dev/github.com/neatgraph/neatgraph/pkg/batch
package pkg
