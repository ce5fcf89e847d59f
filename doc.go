// Package signet issues short-lived signed URLs for an S3-compatible object
// store and wraps the few object operations a browser client needs around them.
//
// Clients never send object bytes through signet on the upload path. They ask
// for a presigned PUT URL, upload straight to the store, and later use signet
// to check, download, stream or delete the object by key.
//
// # Key Components
//
//   - Service: validation and delegation layer in front of an ObjectStore
//   - ObjectStore: backend contract (s3store, miniostore, localstore)
//   - KeyDeriver: date partitioned, collision resistant upload keys
//   - MimeAllowlist: accepted upload content types
//   - OriginPolicy: allow or deny a request by its Origin header
//   - SignatureVerifier: checks AWS Signature V4 presigned URLs served by
//     the local backend
//
// # Example Usage
//
//	service, err := signet.NewService(store, signet.ServiceConfig{
//	    PublicBaseURL: "https://cdn.example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	upload, err := service.PresignPut(ctx, signet.UploadRequest{
//	    ContentType: "image/png",
//	    Ext:         "png",
//	})
//
// See the http package for the REST API built on top of Service.
package signet
