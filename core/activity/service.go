package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/session"
)

// Generated content is kept for a day; regeneration overwrites it and
// logout clears it with the rest of the user-scoped cache.
const generationTTL = 24 * time.Hour

// ErrNoGeneration means nothing has been generated yet for this material.
var ErrNoGeneration = errors.New("nenhum conteúdo gerado")

type (
	// API triggers the backend's AI generation; one POST per call, takes
	// several seconds.
	API interface {
		GenerateContent(ctx context.Context, token, materialID string) (Generation, error)
	}

	ServiceInterface interface {
		Generate(ctx context.Context, sess session.Session, materialID string) (Generation, error)
		Latest(ctx context.Context, sess session.Session, materialID string) (Generation, error)
	}

	Service struct {
		api   API
		cache core.ViewCache
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(api API, cache core.ViewCache) *Service {
	return &Service{api: api, cache: cache}
}

// Generate runs one generation round trip and stores the result, replacing
// (never accumulating) whatever was displayed before.
func (s *Service) Generate(ctx context.Context, sess session.Session, materialID string) (Generation, error) {
	if !sess.Authenticated() {
		return Generation{}, core.ErrNotAuthenticated
	}

	gen, err := s.api.GenerateContent(ctx, sess.Token, materialID)
	if err != nil {
		return Generation{}, err
	}

	key := core.GeneratedContentKey(sess.User.ID, materialID)
	if err := s.cache.Set(ctx, key, gen, generationTTL); err != nil {
		return Generation{}, errors.Wrap(err, "storing generated content")
	}
	return gen, nil
}

// Latest returns the last generation for this user+material, if any.
func (s *Service) Latest(ctx context.Context, sess session.Session, materialID string) (Generation, error) {
	if !sess.Authenticated() {
		return Generation{}, core.ErrNotAuthenticated
	}

	var gen Generation
	found, err := s.cache.Get(ctx, core.GeneratedContentKey(sess.User.ID, materialID), &gen)
	if err != nil {
		return Generation{}, errors.Wrap(err, "reading generated content")
	}
	if !found {
		return Generation{}, ErrNoGeneration
	}
	return gen, nil
}
