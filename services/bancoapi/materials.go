package bancoapi

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core/material"
)

var _ material.API = (*Client)(nil)

type materialPayload struct {
	Material material.Material `json:"material"`
}

func (c *Client) Query(ctx context.Context, f material.QueryFilter, p material.Page) (material.QueryResult, error) {
	query := f.Values()
	for k, vs := range p.Values() {
		query[k] = vs
	}

	var res material.QueryResult
	if err := c.do(ctx, http.MethodGet, "/materials", query, "", nil, &res); err != nil {
		// "no materials" is an empty page, not a failure
		if IsNotFound(err) {
			return emptyResult(p), nil
		}
		return material.QueryResult{}, err
	}
	return res, nil
}

func (c *Client) Get(ctx context.Context, id string) (material.Material, error) {
	var mat material.Material
	if err := c.do(ctx, http.MethodGet, "/materials/"+id, nil, "", nil, &mat); err != nil {
		if IsNotFound(err) {
			return material.Material{}, material.ErrNotFound
		}
		return material.Material{}, err
	}
	return mat, nil
}

// Create uploads a new material as multipart form data, streaming the file
// through a progress-counting reader. The request runs on the slow client:
// bounded, but generous enough for a 10MB file on a bad link.
func (c *Client) Create(ctx context.Context, token string, nm material.NewMaterial, file io.Reader, progress func(pct int)) (material.Material, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMaterialForm(mw, nm, file, progress))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/materials", nil), pr)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "building upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setBearer(req, token)

	res, err := c.slowHTTP.Do(req)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "uploading material")
	}
	defer res.Body.Close()

	var data materialPayload
	if err := decode(res, &data); err != nil {
		return material.Material{}, err
	}
	return data.Material, nil
}

func writeMaterialForm(mw *multipart.Writer, nm material.NewMaterial, file io.Reader, progress func(pct int)) error {
	fields := map[string]string{
		"title":        nm.Title,
		"description":  nm.Description,
		"discipline":   nm.Discipline,
		"grade":        nm.Grade,
		"materialType": string(nm.MaterialType),
		"difficulty":   string(nm.Difficulty),
	}
	if nm.SubTopic != "" {
		fields["subTopic"] = nm.SubTopic
	}
	if nm.EstimatedDuration > 0 {
		fields["estimatedDuration"] = strconv.Itoa(nm.EstimatedDuration)
	}
	if len(nm.Tags) > 0 {
		tags, err := json.Marshal(nm.Tags)
		if err != nil {
			return errors.Wrap(err, "marshaling tags")
		}
		fields["tags"] = string(tags)
	}
	for name, val := range fields {
		if err := mw.WriteField(name, val); err != nil {
			return errors.Wrapf(err, "writing field %s", name)
		}
	}

	part, err := mw.CreateFormFile("file", nm.File.Name)
	if err != nil {
		return errors.Wrap(err, "creating file part")
	}
	counted := &progressReader{r: file, total: nm.File.Size, report: progress}
	if _, err := io.Copy(part, counted); err != nil {
		return errors.Wrap(err, "copying file")
	}
	return mw.Close()
}

// progressReader reports the percentage of the file body consumed so far.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(pct int)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)
	if pr.report != nil && pr.total > 0 {
		pct := int(pr.read * 100 / pr.total)
		if pct > 100 {
			pct = 100
		}
		pr.report(pct)
	}
	return n, err
}

func (c *Client) Update(ctx context.Context, token, id string, um material.UpdateMaterial) (material.Material, error) {
	var data materialPayload
	if err := c.do(ctx, http.MethodPut, "/materials/"+id, nil, token, um, &data); err != nil {
		if IsNotFound(err) {
			return material.Material{}, material.ErrNotFound
		}
		return material.Material{}, err
	}
	return data.Material, nil
}

func (c *Client) Delete(ctx context.Context, token, id string) error {
	err := c.do(ctx, http.MethodDelete, "/materials/"+id, nil, token, nil, nil)
	if IsNotFound(err) {
		return material.ErrNotFound
	}
	return err
}

func (c *Client) Download(ctx context.Context, token, id string) (material.DownloadInfo, error) {
	var info material.DownloadInfo
	if err := c.do(ctx, http.MethodGet, "/materials/"+id+"/download", nil, token, nil, &info); err != nil {
		if IsNotFound(err) {
			return material.DownloadInfo{}, material.ErrNotFound
		}
		return material.DownloadInfo{}, err
	}
	return info, nil
}

func (c *Client) Rate(ctx context.Context, token, id string, nr material.NewRating) error {
	err := c.do(ctx, http.MethodPost, "/materials/"+id+"/rate", nil, token, nr, nil)
	if IsNotFound(err) {
		return material.ErrNotFound
	}
	return err
}

func (c *Client) Similar(ctx context.Context, id string, limit int) ([]material.Material, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var data struct {
		Similar []material.Material `json:"similar"`
	}
	if err := c.do(ctx, http.MethodGet, "/materials/"+id+"/similar", query, "", nil, &data); err != nil {
		return nil, err
	}
	return data.Similar, nil
}

func (c *Client) MyMaterials(ctx context.Context, token string, p material.Page) (material.QueryResult, error) {
	var res material.QueryResult
	if err := c.do(ctx, http.MethodGet, "/materials/user/my-materials", p.Values(), token, nil, &res); err != nil {
		if IsNotFound(err) {
			return emptyResult(p), nil
		}
		return material.QueryResult{}, err
	}
	return res, nil
}

func (c *Client) GlobalStats(ctx context.Context) (material.GlobalStats, error) {
	var stats material.GlobalStats
	if err := c.do(ctx, http.MethodGet, "/materials/stats", nil, "", nil, &stats); err != nil {
		return material.GlobalStats{}, err
	}
	return stats, nil
}

func emptyResult(p material.Page) material.QueryResult {
	return material.QueryResult{
		Materials: []material.Material{},
		Pagination: material.Pagination{
			Current: p.Page,
			Limit:   p.Limit,
		},
	}
}
