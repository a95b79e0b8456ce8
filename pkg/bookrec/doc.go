// Package bookrec embeds the semantic book recommender in a Go program.
//
// The client loads a book catalog and a tagged description corpus, embeds every
// description with the supplied Embedder and answers free-text queries with
// catalog books, optionally filtered by category and sorted by emotional tone.
//
//	client, err := bookrec.Open(ctx, catalogCSV, descriptions,
//	    bookrec.WithEmbedder(myEmbedder),
//	)
//	books, err := client.Recommend(ctx, "A story about forgiveness",
//	    bookrec.InCategory("Fiction"),
//	    bookrec.WithTone(bookrec.ToneHappy),
//	)
//	html := bookrec.Gallery(books)
//
// The index lives in process memory by default. WithValkey or WithRedis keep it
// in an FT.SEARCH-capable store instead.
package bookrec
