// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"net/http"

	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/httpclient"
)

// RESTClient is the one concrete Client implementation this repository
// ships, wrapping github.com/go-resty/resty/v2 through pkg/httpclient's
// retry/timeout/TLS configuration exactly the way the rest of this
// codebase talks to HTTP services.
type RESTClient struct {
	http *httpclient.Client
}

// NewRESTClient builds a catalog client against baseURL using cfg for
// retry/timeout/TLS/auth settings. cfg.BaseURL is overwritten with baseURL.
func NewRESTClient(baseURL string, cfg httpclient.ClientConfig) *RESTClient {
	cfg.BaseURL = baseURL
	return &RESTClient{http: httpclient.NewClient(cfg)}
}

type devicesResponse struct {
	Devices []DeviceRecord `json:"devices"`
}

type mediaResponse struct {
	Media []MediaRecord `json:"media"`
}

type lockResponse struct {
	Acquired bool `json:"acquired"`
}

func (c *RESTClient) GetDevices(ctx context.Context, filter Filter) ([]DeviceRecord, error) {
	var out devicesResponse
	req := c.http.NewRequest(httpclient.RequestConfig{
		Path:    "/v1/devices/query",
		Body:    filter,
		Result:  &out,
		Context: ctx,
	})
	resp, err := req.Post()
	if err != nil {
		return nil, errors.New(errors.CatalogUnreachable, "catalog devices query failed").WithMetadata("error", err.Error())
	}
	if resp.IsError() {
		return nil, errors.New(errors.CatalogQueryFailed, "catalog rejected devices query").
			WithMetadata("status", resp.Status())
	}
	return out.Devices, nil
}

func (c *RESTClient) GetMedia(ctx context.Context, filter Filter) ([]MediaRecord, error) {
	var out mediaResponse
	req := c.http.NewRequest(httpclient.RequestConfig{
		Path:    "/v1/media/query",
		Body:    filter,
		Result:  &out,
		Context: ctx,
	})
	resp, err := req.Post()
	if err != nil {
		return nil, errors.New(errors.CatalogUnreachable, "catalog media query failed").WithMetadata("error", err.Error())
	}
	if resp.IsError() {
		return nil, errors.New(errors.CatalogQueryFailed, "catalog rejected media query").
			WithMetadata("status", resp.Status())
	}
	return out.Media, nil
}

func (c *RESTClient) UpdateMedium(ctx context.Context, id string, update MediumUpdate) error {
	req := c.http.NewRequest(httpclient.RequestConfig{
		Path:    "/v1/media/" + id,
		Body:    update,
		Context: ctx,
	})
	resp, err := req.Put()
	if err != nil {
		return errors.New(errors.CatalogUnreachable, "catalog medium update failed").WithMetadata("error", err.Error())
	}
	if resp.IsError() {
		return errors.New(errors.CatalogUpdateFailed, "catalog rejected medium update").
			WithMetadata("status", resp.Status()).WithMetadata("medium_id", id)
	}
	return nil
}

func (c *RESTClient) AcquireLock(ctx context.Context, kind LockTargetKind, id, owner string) (bool, error) {
	var out lockResponse
	req := c.http.NewRequest(httpclient.RequestConfig{
		Path:    "/v1/locks/" + string(kind) + "/" + id,
		Body:    map[string]string{"owner": owner},
		Result:  &out,
		Context: ctx,
	})
	resp, err := req.Post()
	if err != nil {
		return false, errors.New(errors.CatalogLockFailed, "catalog lock request failed").WithMetadata("error", err.Error())
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		return true, nil
	case http.StatusConflict:
		return false, nil
	default:
		return false, errors.New(errors.CatalogLockFailed, "catalog rejected lock request").
			WithMetadata("status", resp.Status()).WithMetadata("target", id)
	}
}

func (c *RESTClient) ReleaseLock(ctx context.Context, kind LockTargetKind, id, owner string) error {
	req := c.http.NewRequest(httpclient.RequestConfig{
		Path:    "/v1/locks/" + string(kind) + "/" + id,
		Body:    map[string]string{"owner": owner},
		Context: ctx,
	})
	resp, err := req.Delete()
	if err != nil {
		return errors.New(errors.CatalogLockFailed, "catalog unlock request failed").WithMetadata("error", err.Error())
	}
	if resp.IsError() {
		return errors.New(errors.CatalogLockFailed, "catalog rejected unlock request").
			WithMetadata("status", resp.Status()).WithMetadata("target", id)
	}
	return nil
}
