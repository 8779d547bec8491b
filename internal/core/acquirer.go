package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"apms/internal/policies"
	"apms/internal/ports"
	"apms/internal/shared"
	"apms/internal/types"
)

// maxMetadataBytes bounds the metadata document read from a mirror.
const maxMetadataBytes = 1 << 20

// PackageAcquirer resolves package metadata and archives by walking an
// ordered mirror sequence. The first mirror answering with a success
// status wins and no further mirrors are contacted.
type PackageAcquirer struct {
	Mirrors   []types.Mirror
	Transport ports.MirrorTransportPort
	Staging   ports.StagingPort
}

func NewPackageAcquirer(mirrors []types.Mirror, transport ports.MirrorTransportPort, staging ports.StagingPort) PackageAcquirer {
	return PackageAcquirer{
		Mirrors:   mirrors,
		Transport: transport,
		Staging:   staging,
	}
}

// MetadataURL is the per-mirror location of a package descriptor.
func MetadataURL(mirror types.Mirror, name string) string {
	return shared.JoinURL(mirror.URL, "packages/"+url.PathEscape(name)+".json")
}

// ArchiveURL returns downloadURL unchanged when it carries a scheme and
// the mirror URL joined with it otherwise.
func ArchiveURL(mirror types.Mirror, downloadURL string) string {
	if hasScheme(downloadURL) {
		return downloadURL
	}
	return shared.JoinURL(mirror.URL, downloadURL)
}

func hasScheme(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return false
	}
	return strings.HasPrefix(raw[len(parsed.Scheme):], "://")
}

func (a PackageAcquirer) FetchMetadata(ctx context.Context, name string) (types.PackageMetadata, error) {
	var meta types.PackageMetadata
	err := a.walk(ctx,
		func(mirror types.Mirror) string { return MetadataURL(mirror, name) },
		func(mirror types.Mirror, target string, resp ports.FetchResponse) error {
			parsed, err := decodeMetadata(resp.Body, name)
			if err != nil {
				return &types.MetadataError{Mirror: mirror.Name, URL: target, Cause: err}
			}
			log.Ctx(ctx).Debug().
				Str("mirror", mirror.Name).
				Str("version", parsed.Version).
				Msg("package metadata resolved")
			meta = parsed
			return nil
		})
	if err != nil {
		return types.PackageMetadata{}, err
	}
	return meta, nil
}

func (a PackageAcquirer) FetchArchive(ctx context.Context, meta types.PackageMetadata) (types.StagedArchive, error) {
	var staged types.StagedArchive
	err := a.walk(ctx,
		func(mirror types.Mirror) string { return ArchiveURL(mirror, meta.DownloadURL) },
		func(mirror types.Mirror, target string, resp ports.FetchResponse) error {
			path, err := a.Staging.Save(ctx, meta, resp.Body, resp.ContentLength)
			if err != nil {
				return &types.FilesystemError{
					Step:  types.StepWriteStaging,
					Path:  a.Staging.PathFor(meta),
					Cause: err,
				}
			}
			log.Ctx(ctx).Debug().
				Str("mirror", mirror.Name).
				Str("path", path).
				Msg("package archive staged")
			staged = types.StagedArchive{
				Package: meta.Name,
				Version: meta.Version,
				Path:    path,
				Mirror:  mirror.Name,
			}
			return nil
		})
	if err != nil {
		return types.StagedArchive{}, err
	}
	return staged, nil
}

// walk tries each mirror in order. Transport failures and non-success
// statuses are collected and the next mirror is tried; the first success
// is handed to handle and its result ends the walk.
func (a PackageAcquirer) walk(
	ctx context.Context,
	target func(types.Mirror) string,
	handle func(types.Mirror, string, ports.FetchResponse) error,
) error {
	if len(a.Mirrors) == 0 {
		return &types.NoMirrorsError{}
	}
	failures := &types.AggregateFetchError{}
	for _, mirror := range a.Mirrors {
		if err := ctx.Err(); err != nil {
			return err
		}
		requestURL := target(mirror)
		logger := log.Ctx(ctx).With().Str("mirror", mirror.Name).Str("url", requestURL).Logger()
		logger.Debug().Msg("trying mirror")

		resp, err := a.Transport.Get(ctx, requestURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			attempt := &types.MirrorFetchError{Mirror: mirror.Name, URL: requestURL, Cause: err}
			failures.Attempts = append(failures.Attempts, attempt)
			logger.Debug().Err(err).Msg("mirror request failed")
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			closeBody(resp)
			attempt := &types.MirrorFetchError{Mirror: mirror.Name, URL: requestURL, StatusCode: resp.StatusCode}
			failures.Attempts = append(failures.Attempts, attempt)
			logger.Debug().Int("status", resp.StatusCode).Msg("mirror returned non-success status")
			continue
		}
		err = handle(mirror, requestURL, resp)
		closeBody(resp)
		return err
	}
	return failures
}

func closeBody(resp ports.FetchResponse) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
}

func decodeMetadata(body io.Reader, requested string) (types.PackageMetadata, error) {
	if body == nil {
		return types.PackageMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty package information")
	}
	var meta types.PackageMetadata
	if err := json.NewDecoder(io.LimitReader(body, maxMetadataBytes)).Decode(&meta); err != nil {
		return types.PackageMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid package information").
			WithCause(err)
	}
	if meta.Name != requested {
		return types.PackageMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("package information names %q, expected %q", meta.Name, requested))
	}
	if err := policies.ValidatePackageVersion(meta.Version); err != nil {
		return types.PackageMetadata{}, err
	}
	if strings.TrimSpace(meta.DownloadURL) == "" {
		return types.PackageMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package information is missing download_url")
	}
	return meta, nil
}
