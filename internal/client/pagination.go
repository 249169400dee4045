package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

// preferHeaders asks the platform to return full resources.
func preferHeaders() map[string]string {
	return map[string]string{constants.HeaderPrefer: constants.PreferRepresentation}
}

// pageQuery copies filters and adds the paging parameters for page.
func pageQuery(filters url.Values, page int) url.Values {
	query := url.Values{}
	for key, values := range filters {
		query[key] = append([]string(nil), values...)
	}

	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(constants.PageSize))
	query.Set("total_required", "true")

	return query
}

// fetchPages walks the pages of a list endpoint starting at 1. It stops at
// the first empty page. The first page's total_pages caps pageCount, and
// replaces it when all is set. itemsKey names the array holding the items.
func fetchPages[T any](
	ctx context.Context,
	gate *Client,
	path, itemsKey string,
	filters url.Values,
	pageCount int,
	all bool,
) ([]*T, error) {
	if pageCount < 1 {
		pageCount = 1
	}

	var items []*T

	for page := 1; page <= pageCount; page++ {
		resp, err := gate.Request(ctx, http.MethodGet, path, pageQuery(filters, page), preferHeaders(), nil)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			return nil, paybill.ParseResponseError(resp.StatusCode, resp.Body)
		}

		if resp.Body == nil {
			break
		}

		pageItems, info, err := decodePage[T](resp.Body, itemsKey)
		if err != nil {
			return nil, fmt.Errorf("parsing page %d of %s: %w", page, path, err)
		}

		if len(pageItems) == 0 {
			break
		}

		if page == 1 && info.TotalPages > 0 {
			if all || pageCount > info.TotalPages {
				pageCount = info.TotalPages
			}
		}

		items = append(items, pageItems...)
	}

	return items, nil
}

func decodePage[T any](body []byte, itemsKey string) ([]*T, paybill.PageInfo, error) {
	var info paybill.PageInfo

	err := json.Unmarshal(body, &info)
	if err != nil {
		return nil, info, err
	}

	var raw map[string]json.RawMessage

	err = json.Unmarshal(body, &raw)
	if err != nil {
		return nil, info, err
	}

	data, ok := raw[itemsKey]
	if !ok {
		return nil, info, nil
	}

	var items []*T

	err = json.Unmarshal(data, &items)
	if err != nil {
		return nil, info, err
	}

	return items, info, nil
}
