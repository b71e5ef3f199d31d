package transcriber

import "context"

// RemoteHandle references an uploaded recording on the provider side. It is
// valid only for the attempt that created it.
type RemoteHandle struct {
	Name     string
	URI      string
	MIMEType string
}

// Service is a multimodal model endpoint that accepts an uploaded audio file
// together with a text prompt.
type Service interface {
	Upload(ctx context.Context, path string) (RemoteHandle, error)
	Generate(ctx context.Context, prompt string, handle RemoteHandle) (string, error)
	Delete(ctx context.Context, handle RemoteHandle) error
}
