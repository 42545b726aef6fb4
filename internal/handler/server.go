package handler

import (
	"context"

	"github.com/linkshelf/api/internal/openapi"
	"github.com/linkshelf/api/internal/version"
)

func (h *Handler) GetServerInfo(_ context.Context, _ openapi.GetServerInfoRequestObject) (openapi.GetServerInfoResponseObject, error) {
	platforms := h.platforms
	if platforms == nil {
		platforms = []string{}
	}
	return openapi.GetServerInfo200JSONResponse{
		Version:      version.Version,
		Platforms:    platforms,
		CacheEnabled: h.cacheEnabled,
	}, nil
}
