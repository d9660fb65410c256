// Package s4 layers two abstractions over the S3 object API: lazy,
// fallible iteration over every key under a prefix, and multipart uploads
// that always finish by completing or aborting the upload.
//
// Iteration fetches one listing page at a time. Only records the caller
// actually receives are retrieved when iterating with retrieval, and a
// failed page fetch halts the iterator with ErrListingFailed.
//
// Uploads split their source into parts and send them one at a time. A
// source small enough for one part and below the multipart threshold is put
// in a single request. When a part or the source fails, the upload is
// aborted before the error is returned, so no incomplete upload is left
// behind. The one exception is a failed completion: the returned error
// carries the upload id and parts so the caller can retry with
// CompleteUpload or clean up with AbortUpload.
//
// Example usage:
//
//	client, err := s4.New(s4.WithRegion("eu-central-1"), s4.WithPartSize(8*1024*1024))
//	if err != nil {
//	    return err
//	}
//
//	it, err := client.Iterate("my-bucket", "logs/2024/")
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
//
//	result, err := client.UploadFile(ctx, "my-bucket", "backups/db.tar", "/var/backups/db.tar")
package s4
