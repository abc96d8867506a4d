package api

import (
	"github.com/cuemarkapp/cuemark-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Auth   *service.AuthService
	Book   *service.BookService
	Source *service.SourceService
	Draft  *service.DraftService
	Search *service.SearchService
}
