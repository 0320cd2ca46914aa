package hypon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/tidwall/gjson"
)

const (
	opOverview  = "get overview"
	opPlants    = "get plant list"
	opInverters = "get inverters"
	opAdminInfo = "get admin info"

	overviewEndpoint  = "plant/overview"
	plantListEndpoint = "plant/list2"
	adminInfoEndpoint = "administrator/admininfo"

	// maxInverterPages stops a walk whose totalPage is nonsensical.
	maxInverterPages = 1000
)

// fetch issues one authenticated GET and returns the whole body and its
// validated "data" member. Non-200 statuses and malformed bodies are returned
// as *Error so the retry loop can classify them.
func (c *Client) fetch(ctx context.Context, op, endpoint string, params url.Values, wantArray bool) (gjson.Result, gjson.Result, error) {
	status, body, err := c.get(ctx, op, endpoint, params)
	if err != nil {
		return gjson.Result{}, gjson.Result{}, err
	}
	if status != http.StatusOK {
		return gjson.Result{}, gjson.Result{}, statusError(op, status)
	}
	root, data, err := envelope(op, body, wantArray)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "malformed hypon response", slog.String("op", op), slog.Any("error", err))
		return gjson.Result{}, gjson.Result{}, err
	}
	return root, data, nil
}

// GetOverview returns the aggregate metrics of every plant on the account.
func (c *Client) GetOverview(ctx context.Context, opts ...RequestOption) (types.OverviewData, error) {
	return retry(ctx, c, opOverview, opts, func(ctx context.Context) (types.OverviewData, error) {
		_, data, err := c.fetch(ctx, opOverview, overviewEndpoint, nil, false)
		if err != nil {
			return types.OverviewData{}, err
		}
		return decodeOverview(data), nil
	})
}

// GetPlants returns the plants on the account in the order the cloud lists
// them. Only the first page of the list is requested.
func (c *Client) GetPlants(ctx context.Context, opts ...RequestOption) ([]types.PlantData, error) {
	params := url.Values{
		"page":      {"1"},
		"page_size": {"10"},
		"refresh":   {"true"},
	}
	return retry(ctx, c, opPlants, opts, func(ctx context.Context) ([]types.PlantData, error) {
		_, data, err := c.fetch(ctx, opPlants, plantListEndpoint, params, true)
		if err != nil {
			return nil, err
		}
		plants := make([]types.PlantData, 0, len(data.Array()))
		data.ForEach(func(_, item gjson.Result) bool {
			plants = append(plants, decodePlant(item))
			return true
		})
		return plants, nil
	})
}

// GetInverters returns every inverter of plantID across all pages, in page
// order. A failure on any page restarts the walk from the first page.
func (c *Client) GetInverters(ctx context.Context, plantID string, opts ...RequestOption) ([]types.InverterData, error) {
	switch plantID {
	case "":
		return nil, &Error{Op: opInverters, Kind: ErrRequest, Err: errors.New("empty plant id")}
	case ".", "..":
		return nil, &Error{Op: opInverters, Kind: ErrRequest, Err: errors.New("invalid plant id")}
	}
	// the id is one escaped segment so it can never reach another endpoint
	endpoint := "plant/" + url.PathEscape(plantID) + "/inverter"

	return retry(ctx, c, opInverters, opts, func(ctx context.Context) ([]types.InverterData, error) {
		inverters := []types.InverterData{}
		totalPages := 1
		for page := 1; page <= totalPages; page++ {
			root, data, err := c.fetch(ctx, opInverters, endpoint, url.Values{"page": {strconv.Itoa(page)}}, true)
			if err != nil {
				return nil, err
			}
			if tp := root.Get("totalPage"); tp.Exists() {
				totalPages = int(tp.Int())
			}
			if totalPages > maxInverterPages {
				log.Ctx(ctx).WarnContext(
					ctx,
					"hypon reported too many inverter pages",
					slog.String("plantID", plantID),
					slog.Int("totalPage", totalPages),
					slog.Int("max", maxInverterPages),
				)
				totalPages = maxInverterPages
			}
			data.ForEach(func(_, item gjson.Result) bool {
				inverters = append(inverters, decodeInverter(item, plantID))
				return true
			})
		}
		log.Ctx(ctx).DebugContext(
			ctx,
			"fetched hypon inverters",
			slog.String("plantID", plantID),
			slog.Int("pages", totalPages),
			slog.Int("count", len(inverters)),
		)
		return inverters, nil
	})
}

// GetAdminInfo returns the authenticated account. Members of the nested
// "info" object take precedence over top-level members with the same name.
func (c *Client) GetAdminInfo(ctx context.Context, opts ...RequestOption) (types.AdminInfo, error) {
	return retry(ctx, c, opAdminInfo, opts, func(ctx context.Context) (types.AdminInfo, error) {
		_, data, err := c.fetch(ctx, opAdminInfo, adminInfoEndpoint, nil, false)
		if err != nil {
			return types.AdminInfo{}, err
		}
		flat, err := flattenInfo(data.Raw)
		if err != nil {
			return types.AdminInfo{}, malformedError(opAdminInfo, "flatten info: %v", err)
		}
		return decodeAdminInfo(gjson.Parse(flat)), nil
	})
}
