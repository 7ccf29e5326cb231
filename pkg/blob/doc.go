// Package blob stores opaque binary objects under string keys.
//
// A [Store] writes, reads, describes and deletes objects. Three backends ship
// with the package: [MemoryStore] for local runs and tests, [S3Store] on
// aws-sdk-go-v2 and [MinIOStore] on minio-go. [New] picks one by driver name:
//
//	store, err := blob.New(blob.Config{
//	    Driver:    blob.DriverS3,
//	    Bucket:    "uploads",
//	    AccessKey: os.Getenv("BLOB_ACCESS_KEY"),
//	    SecretKey: os.Getenv("BLOB_SECRET_KEY"),
//	})
//
// Stores compose. [Cached] keeps descriptors in a [cache.Cache] so repeated
// Head calls skip the backend, and [Traced] records an OpenTelemetry span per
// call:
//
//	store = blob.Traced(blob.Cached(store, cache.NewMemory[blob.Object](), time.Minute), nil)
//
// Keys are used exactly as given. Writing an existing key replaces the object.
//
// # Errors
//
// Backend failures are mapped onto sentinel errors such as [ErrNotFound] and
// [ErrAccessDenied]; match them with errors.Is.
//
// # Images
//
// [IsImageType] and [ImageKey] encode the upload rules for images: the
// declared media type must start with "image/" and objects are stored under
// "images/" followed by the client-supplied filename.
package blob
