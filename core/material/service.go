package material

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/session"
)

// Cache lifetimes. Listings go stale fast (new uploads from other users);
// details and stats survive a bit longer since our own mutations invalidate
// them explicitly.
const (
	listCacheTTL   = time.Minute
	detailCacheTTL = 5 * time.Minute
	statsCacheTTL  = 5 * time.Minute
)

var (
	// ErrNotFound means the backend knows no such material.
	ErrNotFound = errors.New("material não encontrado")
)

type (
	// API is the slice of the backend this service needs; implemented by
	// services/bancoapi.
	API interface {
		Query(ctx context.Context, f QueryFilter, p Page) (QueryResult, error)
		Get(ctx context.Context, id string) (Material, error)
		Create(ctx context.Context, token string, nm NewMaterial, file io.Reader, progress func(pct int)) (Material, error)
		Update(ctx context.Context, token, id string, um UpdateMaterial) (Material, error)
		Delete(ctx context.Context, token, id string) error
		Download(ctx context.Context, token, id string) (DownloadInfo, error)
		Rate(ctx context.Context, token, id string, nr NewRating) error
		Similar(ctx context.Context, id string, limit int) ([]Material, error)
		MyMaterials(ctx context.Context, token string, p Page) (QueryResult, error)
		GlobalStats(ctx context.Context) (GlobalStats, error)
	}

	ServiceInterface interface {
		Query(ctx context.Context, f QueryFilter, p Page) (QueryResult, error)
		Get(ctx context.Context, id string) (Material, error)
		Update(ctx context.Context, sess session.Session, id string, um UpdateMaterial) (Material, error)
		Delete(ctx context.Context, sess session.Session, id string) error
		Download(ctx context.Context, sess session.Session, id string) (DownloadInfo, error)
		Rate(ctx context.Context, sess session.Session, id string, nr NewRating) (Material, error)
		Similar(ctx context.Context, id string, limit int) ([]Material, error)
		MyMaterials(ctx context.Context, sess session.Session, p Page) (QueryResult, error)
		GlobalStats(ctx context.Context) (GlobalStats, error)
		Share(ctx context.Context, sess session.Session, id string, sr ShareRequest)
	}

	Service struct {
		api     API
		cache   core.ViewCache
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(api API, cache core.ViewCache, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{api: api, cache: cache, mailSvc: mailSvc, conf: conf}
}

// Query returns one listing page, cached per filter+page combination.
// An empty page is a valid result, not a failure.
func (s *Service) Query(ctx context.Context, f QueryFilter, p Page) (QueryResult, error) {
	f.Clean()
	p.Clean()

	key := core.MaterialListKey(listCacheKey(f, p))
	var res QueryResult
	if found, err := s.cache.Get(ctx, key, &res); err != nil {
		return QueryResult{}, errors.Wrap(err, "reading list cache")
	} else if found {
		return res, nil
	}

	res, err := s.api.Query(ctx, f, p)
	if err != nil {
		return QueryResult{}, errors.Wrap(err, "querying materials")
	}
	if res.Materials == nil {
		res.Materials = []Material{}
	}
	if err := s.cache.Set(ctx, key, res, listCacheTTL); err != nil {
		return QueryResult{}, errors.Wrap(err, "caching list page")
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id string) (Material, error) {
	key := core.MaterialKey(id)
	var mat Material
	if found, err := s.cache.Get(ctx, key, &mat); err != nil {
		return Material{}, errors.Wrap(err, "reading material cache")
	} else if found {
		return mat, nil
	}

	mat, err := s.api.Get(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if err := s.cache.Set(ctx, key, mat, detailCacheTTL); err != nil {
		return Material{}, errors.Wrap(err, "caching material")
	}
	return mat, nil
}

// Update edits the caller's own material and drops every view the change
// could show up in, before success is reported.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, um UpdateMaterial) (Material, error) {
	if !sess.Authenticated() {
		return Material{}, core.ErrNotAuthenticated
	}
	mat, err := s.api.Update(ctx, sess.Token, id, um)
	if err != nil {
		return Material{}, err
	}
	if err := s.invalidateAfterMutation(ctx, id, sess.User.ID); err != nil {
		return Material{}, err
	}
	return mat, nil
}

func (s *Service) Delete(ctx context.Context, sess session.Session, id string) error {
	if !sess.Authenticated() {
		return core.ErrNotAuthenticated
	}
	if err := s.api.Delete(ctx, sess.Token, id); err != nil {
		return err
	}
	return s.invalidateAfterMutation(ctx, id, sess.User.ID)
}

// Download fetches the CDN URL for an authorized download. Callers must not
// offer this to unauthenticated users; the guard here is the last line.
func (s *Service) Download(ctx context.Context, sess session.Session, id string) (DownloadInfo, error) {
	if !sess.Authenticated() {
		return DownloadInfo{}, core.ErrNotAuthenticated
	}
	info, err := s.api.Download(ctx, sess.Token, id)
	if err != nil {
		return DownloadInfo{}, err
	}
	// the download count changed on the backend
	if err := s.invalidateAfterMutation(ctx, id, sess.User.ID); err != nil {
		return DownloadInfo{}, err
	}
	return info, nil
}

// Rate submits a 1..5 rating and returns the freshly re-fetched material so
// the caller can show updated numbers without a page reload.
func (s *Service) Rate(ctx context.Context, sess session.Session, id string, nr NewRating) (Material, error) {
	if !sess.Authenticated() {
		return Material{}, core.ErrNotAuthenticated
	}
	if err := s.api.Rate(ctx, sess.Token, id, nr); err != nil {
		return Material{}, err
	}
	if err := s.invalidateAfterMutation(ctx, id, sess.User.ID); err != nil {
		return Material{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Similar(ctx context.Context, id string, limit int) ([]Material, error) {
	if limit < 1 {
		limit = 5
	}
	return s.api.Similar(ctx, id, limit)
}

func (s *Service) MyMaterials(ctx context.Context, sess session.Session, p Page) (QueryResult, error) {
	if !sess.Authenticated() {
		return QueryResult{}, core.ErrNotAuthenticated
	}
	p.Clean()

	key := core.UserMaterialsKey(sess.User.ID, p.Page)
	var res QueryResult
	if found, err := s.cache.Get(ctx, key, &res); err != nil {
		return QueryResult{}, errors.Wrap(err, "reading my-materials cache")
	} else if found {
		return res, nil
	}

	res, err := s.api.MyMaterials(ctx, sess.Token, p)
	if err != nil {
		return QueryResult{}, err
	}
	if res.Materials == nil {
		res.Materials = []Material{}
	}
	if err := s.cache.Set(ctx, key, res, listCacheTTL); err != nil {
		return QueryResult{}, errors.Wrap(err, "caching my-materials page")
	}
	return res, nil
}

func (s *Service) GlobalStats(ctx context.Context) (GlobalStats, error) {
	key := core.MaterialStatsKey()
	var stats GlobalStats
	if found, err := s.cache.Get(ctx, key, &stats); err != nil {
		return GlobalStats{}, errors.Wrap(err, "reading stats cache")
	} else if found {
		return stats, nil
	}

	stats, err := s.api.GlobalStats(ctx)
	if err != nil {
		return GlobalStats{}, err
	}
	if err := s.cache.Set(ctx, key, stats, statsCacheTTL); err != nil {
		return GlobalStats{}, errors.Wrap(err, "caching stats")
	}
	return stats, nil
}

// Share emails a link to the material. Sending happens in the background
// (EmailService contract); failures are logged by the email service.
func (s *Service) Share(ctx context.Context, sess session.Session, id string, sr ShareRequest) {
	mat, err := s.Get(ctx, id)
	if err != nil {
		mat = Material{ID: id, Title: "material"}
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: sr.Email}},
		Subject:      fmt.Sprintf("%s compartilhou um material com você", sess.User.Name),
		TemplateName: "material_shared",
		TemplateData: struct {
			SenderName string
			Message    string
			Material   Material
		}{sess.User.Name, sr.Message, mat},
	}
	s.mailSvc.SendMessages(msg)
}

// invalidateAfterMutation drops exactly the views a material mutation can
// change: the material itself, every listing page, the aggregate stats and
// the acting user's dashboard.
func (s *Service) invalidateAfterMutation(ctx context.Context, id, userID string) error {
	prefixes := []string{
		core.MaterialKey(id),
		core.MaterialListKeyPrefix(),
		core.MaterialStatsKey(),
	}
	if userID != "" {
		prefixes = append(prefixes, core.UserKeyPrefix(userID))
	}
	return errors.Wrap(s.cache.Invalidate(ctx, prefixes...), "invalidating after mutation")
}

func listCacheKey(f QueryFilter, p Page) string {
	vals := f.Values()
	for k, vs := range p.Values() {
		vals[k] = vs
	}
	return vals.Encode()
}
