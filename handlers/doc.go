// Package handlers contains blobdrop's HTTP handlers.
//
// UploadHandler serves POST /api/storage/upload. It reads the multipart
// field "file" and stores it under "images/" + filename:
//
//	400 {"error":"No file provided"}      field missing or empty
//	400 {"error":"File must be an image"} declared type not image/*
//	200 <blob.Object>                     stored
//
// The declared Content-Type of the part is trusted; content is not sniffed.
// Same-name uploads overwrite each other.
//
// BlobsHandler serves GET /api/storage/head/* and /api/storage/serve/*.
// ErrorHandler renders every error as {"error": message}.
package handlers
