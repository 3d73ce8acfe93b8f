// Package provider implements the remote photo-management service client.
//
// The pipeline consumes the Client interface only; the concrete
// implementation speaks the Synology Photos web API (auth.cgi session
// login, entry.cgi item listing/thumbnail/download/EXIF endpoints).
// Remote payloads are loosely typed, so every response is funneled
// through a single normalization step before the rest of the pipeline
// sees it.
package provider
