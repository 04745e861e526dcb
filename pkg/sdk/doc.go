// Package vecsync embeds the dataset search index synchronizer in a Go program.
//
// The client reads dataset records from a local SQLite store, vectorizes them
// through an embedding model and keeps an OpenSearch or Redis search index in
// step with the store. It also serves keyword and similarity queries against
// that index.
//
//	client, _ := vecsync.New(ctx,
//	    vecsync.WithOpenSearch("http://localhost:9200"),
//	    vecsync.WithRecordStore("datasets.db"),
//	    vecsync.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "", "text-embedding-3-small"),
//	)
//	defer client.Close()
//
//	_ = client.Import(ctx, records)
//	report, _ := client.Sync(ctx, vecsync.SyncOptions{Recreate: true})
//	page, _ := client.Search(ctx, vecsync.SearchQuery{Term: "air quality"})
//	similar, _ := client.Similar(ctx, "hourly air pollution readings", "")
package vecsync
