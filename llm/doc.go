// Package llm wraps a model.Model with the plumbing every agent shares:
// forced structured output, schema validation, usage metadata, the
// per-dispatch call budget, logging and the append-only call log.
//
// Free text:
//
//	res, err := client.Call(ctx, llm.Prompt{User: "Say hi"})
//
// Structured output:
//
//	var fixTool = tool.MustSchemaTool("code_fix", "A code fix", CodeFix{})
//	res, err := llm.Structured[CodeFix](ctx, client, fixTool, llm.Prompt{User: prompt})
//	fmt.Println(res.Data.FixedCode, res.Metadata.TokensUsed)
package llm
