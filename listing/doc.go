// Package listing provides lazy iterators over the keys of a bucket.
//
// A KeyIterator pulls one listing page at a time from a PageSource and holds
// at most one page in memory. A FetchingIterator wraps a KeyIterator and
// retrieves the content of each record it yields, so only the records a
// caller actually receives are retrieved.
//
// Iterators are not safe for concurrent use, but may be handed from one
// goroutine to another between calls. Every call takes the caller's context,
// which is passed unchanged to the underlying requests.
//
// Basic usage:
//
//	it, err := client.Iterate("my-bucket", "logs/")
//	if err != nil {
//	    return err
//	}
//	for {
//	    obj, err := it.Next(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if obj == nil {
//	        break
//	    }
//	    fmt.Println(obj.Key, obj.Size)
//	}
package listing
