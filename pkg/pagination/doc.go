// Package pagination fetches every page of an enveloped dashboard endpoint
// in parallel.
//
// Paged endpoints answer GET <endpoint>?page=<p>&page_size=<n> with
// {data, page, page_size, total_count, total_pages}. The batch fetcher reads
// page 1 to learn total_pages, fetches the remaining pages with a bounded
// worker pool and concatenates the records in page order.
//
// Example usage:
//
//	source := apiClient.PageSource(100, false)
//	fetcher := pagination.NewBatchFetcher(source, pagination.DefaultConfig())
//	records, err := fetcher.FetchAll(ctx, "landings")
//
// A dataset is only usable when every page arrived, so any page failure
// fails the whole fetch and no partial records are returned.
package pagination
