// Package layout bridges diagram graphs and automatic layout engines.
//
// # Overview
//
// Layout engines consume a flat, engine-neutral [Descriptor] and produce a
// [Result] holding absolute node positions and edge routes. This package owns
// both directions of that exchange:
//
//   - [Convert] turns diagram nodes and edges into a Descriptor, resolving
//     node sizes, labels, and layout directives.
//   - [MapResult] matches a Result back against the originating cells and
//     produces a [Placement].
//   - [Apply] writes a Placement onto the graph, optionally easing node
//     positions over time.
//
// # Engines
//
// An [Engine] computes layouts synchronously. Engines that can keep expensive
// state alive between runs (the graphviz engine keeps a WebAssembly instance
// warm) additionally implement [WarmEngine]. The [Layouter] wraps an engine
// and, when requested, moves it onto a dedicated worker goroutine so callers
// never block each other; if the warm start fails it silently falls back to
// per-call synchronous execution.
//
// # Presets and Density
//
// [Preset] returns named option bundles (flowchart, hierarchy, network,
// circular, radial, spacious, compact). Unknown names fall back to the
// flowchart preset rather than erroring. [DensityPolicy.Select] picks a
// preset from measured graph [Traits] so callers can ask for "a sensible
// layout" without inspecting the graph themselves.
package layout
