// Package assessrag provides a Go client for the assessrag HTTP API.
//
// The one-call path chains retrieval and generation:
//
//	client := assessrag.New("http://localhost:8080")
//	answer, _ := client.Ask(ctx, "What assessments fit a Java developer?")
//
// Lower-level calls mirror the API endpoints:
//
//	ids, _ := client.PushDocs(ctx, docs)
//	texts, _ := client.Context(ctx, "java developer")
//	output, _ := client.Response(ctx, "java developer", strings.Join(texts, "\n"))
package assessrag
