package bancoapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core/activity"
)

var _ activity.API = (*Client)(nil)

// GenerateContent triggers one AI generation round trip. Generation takes
// several seconds server-side, so it runs on the slow client.
func (c *Client) GenerateContent(ctx context.Context, token, materialID string) (activity.Generation, error) {
	path := "/materials/" + materialID + "/generate-activities"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), nil)
	if err != nil {
		return activity.Generation{}, errors.Wrap(err, "building generation request")
	}
	setBearer(req, token)

	res, err := c.slowHTTP.Do(req)
	if err != nil {
		return activity.Generation{}, errors.Wrap(err, "calling generation endpoint")
	}
	defer res.Body.Close()

	var gen activity.Generation
	if err := decode(res, &gen); err != nil {
		return activity.Generation{}, err
	}
	return gen, nil
}
