// Package buildinfo exposes version information injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/minipay-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/minipay-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Values left unset fall back to what the Go runtime embeds in the binary.
package buildinfo
