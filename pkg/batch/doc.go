// Package batch splits large collections into cooperative chunks.
//
// # Overview
//
// Building or transforming thousands of cells in one tight loop starves
// everything else running on the thread. [Process] cuts the work into fixed
// size batches, reports progress after each one, and yields between batches
// so other work can run. [Generate] does the same for index-driven
// production of new items, and [ProcessMerge] folds per-batch result maps
// into one document under a [MergeSpec].
//
// # Yielding
//
// The pause between batches is pluggable via [Yielder]. The default yields
// the processor with runtime.Gosched, which is effectively free.
// [FrameLimiter] instead paces batches to a frame budget, which keeps an
// interactive canvas responsive while a large diagram streams in.
//
// # Cancellation
//
// There is deliberately no cancellation primitive here: the context handed
// to Process flows into the per-batch transform, and a transform that
// returns the context error stops the run. Callers that need hard deadlines
// put them in the context.
package batch
