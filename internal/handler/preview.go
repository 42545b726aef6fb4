package handler

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/linkshelf/api/internal/linkpreview"
	"github.com/linkshelf/api/internal/openapi"
)

// GetPreview resolves a single URL. Degraded fetches still answer 200 and
// report the outcome in status; only unusable input is a 400.
func (h *Handler) GetPreview(ctx context.Context, request openapi.GetPreviewRequestObject) (openapi.GetPreviewResponseObject, error) {
	var raw string
	if request.Params.Url != nil {
		raw = *request.Params.Url
	}

	resolve := h.previews.Preview
	if request.Params.Refresh != nil && *request.Params.Refresh {
		resolve = h.previews.Refresh
	}

	res, err := resolve(ctx, raw)
	if errors.Is(err, linkpreview.ErrInvalidURL) {
		return openapi.GetPreview400JSONResponse{BadRequestJSONResponse: invalidURLResponse()}, nil
	}
	if err != nil {
		return nil, err
	}

	return openapi.GetPreview200JSONResponse(toPreview(res)), nil
}

// BatchPreview resolves several URLs concurrently. Items keep request order;
// an invalid URL yields an error item instead of failing the batch.
func (h *Handler) BatchPreview(ctx context.Context, request openapi.BatchPreviewRequestObject) (openapi.BatchPreviewResponseObject, error) {
	if request.Body == nil || len(request.Body.Urls) == 0 {
		return openapi.BatchPreview400JSONResponse{BadRequestJSONResponse: badRequestResponse(ErrCodeValidationError, "urls must not be empty")}, nil
	}
	urls := request.Body.Urls
	if len(urls) > h.batch.MaxURLs {
		return openapi.BatchPreview400JSONResponse{BadRequestJSONResponse: badRequestResponse(ErrCodeValidationError, fmt.Sprintf("at most %d urls per request", h.batch.MaxURLs))}, nil
	}

	items := make([]openapi.BatchPreviewItem, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.batch.Concurrency)

	for i, raw := range urls {
		if _, err := linkpreview.Normalize(raw); err != nil {
			items[i] = invalidItem(raw)
			continue
		}

		g.Go(func() error {
			if err := h.pacer.Wait(gctx); err != nil {
				return err
			}
			res, err := h.previews.Preview(gctx, raw)
			if err != nil {
				items[i] = invalidItem(raw)
				return nil
			}
			items[i] = toBatchItem(res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolving batch: %w", err)
	}

	return openapi.BatchPreview200JSONResponse{Previews: items}, nil
}

func toPreview(res linkpreview.Result) openapi.Preview {
	return openapi.Preview{
		Title:  res.Title,
		Image:  res.Image,
		Url:    res.URL,
		Status: openapi.PreviewStatus(res.Status),
	}
}

func toBatchItem(res linkpreview.Result) openapi.BatchPreviewItem {
	status := openapi.PreviewStatus(res.Status)
	return openapi.BatchPreviewItem{
		Url:    res.URL,
		Title:  &res.Title,
		Image:  &res.Image,
		Status: &status,
	}
}

func invalidItem(raw string) openapi.BatchPreviewItem {
	apiErr := invalidURLResponse().Error
	return openapi.BatchPreviewItem{
		Url:   raw,
		Error: &apiErr,
	}
}
