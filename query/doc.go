// Package query answers questions over an index: it embeds the question,
// retrieves the best matching chunks, assembles a bounded context and asks a
// generator once.
//
// # Usage
//
//	engine, err := query.NewEngine(idx, provider.Embedder(), provider.Generator())
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Answer(ctx, "What is the warranty period?", 3, 4000)
//
// A Monitor can observe each stage of a call, for tracing or debugging.
package query
