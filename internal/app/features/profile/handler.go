// internal/app/features/profile/handler.go
package profile

import (
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/imagecdn"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own profile.
type Handler struct {
	Users  *userstore.Store
	Images *imagecdn.Uploader // nil when no CDN is configured
	Log    *zap.Logger
}

func NewHandler(us *userstore.Store, images *imagecdn.Uploader, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  us,
		Images: images,
		Log:    logger,
	}
}
