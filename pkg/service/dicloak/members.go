package dicloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// memberPage is the wire shape of a member listing response
type memberPage struct {
	List  []model.Member `json:"list"`
	Total int            `json:"total"`
}

const (
	paginationPageSize = 100
	retryablePageLimit = 3

	// largePageTolerance accepts a single large page that is slightly
	// short of the reported total, tolerating concurrent writes between
	// the count probe and the fetch.
	largePageTolerance = 0.9
)

func largePageSizes(total int) []int {
	return []int{total, min(total, 1000), min(total, 500)}
}

// ListMembers fetches one page of the member collection and the reported
// total.
func (c *Client) ListMembers(ctx context.Context, page, size int) ([]model.Member, int, error) {
	path := fmt.Sprintf("/v1/members?page=%d&size=%d&detail=true", page, size)
	mp, err := requestInto[memberPage](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	return mp.List, mp.Total, nil
}

// GetAllMembers returns the complete member collection without leaking
// pagination to the caller. It prefers a single bulk fetch, falls back to
// one large page, and finally to strict pagination. A partial result after
// exhausted retries is valid output, not corruption.
func (c *Client) GetAllMembers(ctx context.Context) ([]model.Member, error) {
	logger := ctxlog.From(ctx)

	bulk, err := requestInto[memberPage](ctx, c, http.MethodGet, "/v1/members?all=true&detail=true", nil)
	if err == nil && len(bulk.List) > 0 {
		logger.Debug("member collection loaded in bulk", "count", len(bulk.List))
		return bulk.List, nil
	}
	if err != nil {
		logger.Debug("bulk member fetch failed", "error", err)
	}

	probe, err := requestInto[memberPage](ctx, c, http.MethodGet, "/v1/members?page=1&size=1&detail=true", nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to determine member count")
	}
	total := probe.Total
	if total == 0 {
		return []model.Member{}, nil
	}

	for _, size := range largePageSizes(total) {
		mp, err := requestInto[memberPage](ctx, c, http.MethodGet,
			fmt.Sprintf("/v1/members?page=1&size=%d&detail=true", size), nil)
		if err != nil {
			logger.Debug("large page fetch failed", "size", size, "error", err)
			continue
		}
		if float64(len(mp.List)) >= float64(total)*largePageTolerance {
			logger.Debug("member collection loaded in one large page",
				"count", len(mp.List), "total", total)
			return mp.List, nil
		}
	}

	return c.getAllMembersPaginated(ctx, total)
}

// getAllMembersPaginated walks fixed-size pages sequentially, pausing
// between pages as a courtesy to the external service. Early pages are
// retried after a wait; later page failures leave the aggregate partial.
func (c *Client) getAllMembersPaginated(ctx context.Context, total int) ([]model.Member, error) {
	logger := ctxlog.From(ctx)
	var all []model.Member
	totalPages := (total + paginationPageSize - 1) / paginationPageSize

	for page := 1; page <= totalPages; page++ {
		mp, err := requestInto[memberPage](ctx, c, http.MethodGet,
			fmt.Sprintf("/v1/members?page=%d&size=%d&detail=true", page, paginationPageSize), nil)
		if err != nil {
			logger.Warn("member page fetch failed", "page", page, "error", err)
			if page <= retryablePageLimit {
				if werr := wait(ctx, c.intervals.PageRetry); werr != nil {
					return all, werr
				}
				page--
			}
			continue
		}
		if len(mp.List) == 0 {
			break
		}
		all = append(all, mp.List...)
		if len(all) >= total {
			break
		}
		if len(mp.List) < paginationPageSize {
			break
		}
		if werr := wait(ctx, c.intervals.PageFetch); werr != nil {
			return all, werr
		}
	}

	if len(all) > total {
		all = all[:total]
	}
	if len(all) < total {
		logger.Warn("member aggregation completed with partial data",
			"collected", len(all), "total", total)
	}
	return all, nil
}

// GetMember fetches one member's detail
func (c *Client) GetMember(ctx context.Context, id types.MemberID) (*model.Member, error) {
	raw, err := c.request(ctx, http.MethodGet, memberPath(id), nil)
	if err != nil {
		if goerr.HasTag(err, model.ErrTagNotFound) {
			return nil, goerr.Wrap(model.ErrMemberNotFound, "member does not exist or was removed",
				goerr.V("member_id", id))
		}
		return nil, err
	}
	if !hasData(raw) {
		return nil, goerr.Wrap(model.ErrMemberNotFound, "member detail returned no data",
			goerr.V("member_id", id))
	}
	var m model.Member
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, goerr.Wrap(err, "failed to decode member detail",
			goerr.T(model.ErrTagUnexpectedResponse), goerr.V("member_id", id))
	}
	return &m, nil
}

// ListRoles fetches the member role catalog
func (c *Client) ListRoles(ctx context.Context) ([]model.Role, error) {
	rp, err := requestInto[struct {
		List []model.Role `json:"list"`
	}](ctx, c, http.MethodGet, "/v1/member/roles", nil)
	if err != nil {
		return nil, err
	}
	return rp.List, nil
}
