// Package file stores small blobs such as profile images on the local
// filesystem or in Amazon S3 (and S3-compatible services).
//
// Both backends implement Storage:
//
//	store, err := file.NewLocalStorage("./data/media", "/media/")
//	obj, err := store.Put(ctx, "avatars/u1.png", bytes.NewReader(data), int64(len(data)), "image/png")
//	fmt.Println(obj.URL) // /media/avatars/u1.png
//
// S3 is configured with S3Config, usually parsed from the environment:
//
//	store, err := file.NewS3Storage(ctx, cfg.S3)
//
// Keys are slash separated and may not climb out of the storage root.
// Helpers DetectContentType, IsImage and ReadLimited cover the checks
// usually done before storing untrusted content.
package file
