package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://graphql.anilist.co"

const userQuery = `
query ($name: String) {
    User (name: $name) { id }
}`

const activitiesQuery = `
query ($userId: Int, $page: Int) {
    Page (page: $page, perPage: 50) {
        pageInfo { hasNextPage }
        activities (userId: $userId, type: MEDIA_LIST, sort: ID_DESC) {
            ... on ListActivity {
                id
                createdAt
                progress
                status
                media {
                    id
                    title { romaji english }
                    type
                }
            }
        }
    }
}`

// Client talks to the AniList GraphQL API.
type Client struct {
	BaseURL string
	// PageDelay is the pause between page requests, to stay polite.
	PageDelay time.Duration
	// RetryDelay is how long to back off after a rate-limit response
	// before retrying the same page.
	RetryDelay time.Duration
	client     *http.Client
}

// NewClient creates an AniList API client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		PageDelay:  500 * time.Millisecond,
		RetryDelay: 60 * time.Second,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// UserID resolves an AniList username to its numeric user ID.
func (c *Client) UserID(ctx context.Context, name string) (int64, error) {
	body, err := c.post(ctx, userQuery, map[string]any{"name": name})
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var result struct {
		Data struct {
			User *struct {
				ID int64 `json:"id"`
			} `json:"User"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decoding user response: %w", err)
	}
	if len(result.Errors) > 0 || result.Data.User == nil {
		return 0, fmt.Errorf("user %q not found", name)
	}
	return result.Data.User.ID, nil
}

// Activities fetches the user's manga list activities, newest first across
// pages. Records with no media or non-manga media are dropped. When sinceID
// is nonzero, paging stops once a whole page is at or below it, so an
// incremental sync only pulls activities newer than the cache.
//
// Rate-limit responses sleep and retry the same page; any other failure
// abandons pagination and returns whatever was collected so far.
func (c *Client) Activities(ctx context.Context, userID, sinceID int64) []Activity {
	var all []Activity
	page := 1

	for {
		if err := sleepCtx(ctx, c.PageDelay); err != nil {
			return all
		}

		acts, hasNext, retry, err := c.activitiesPage(ctx, userID, page)
		if retry {
			log.Printf("AniList rate limit hit, retrying page %d in %s", page, c.RetryDelay)
			if err := sleepCtx(ctx, c.RetryDelay); err != nil {
				return all
			}
			continue
		}
		if err != nil {
			log.Printf("Error on page %d: %v (keeping %d activities fetched so far)", page, err, len(all))
			return all
		}
		if len(acts) == 0 {
			return all
		}

		pageExhausted := false
		for _, a := range acts {
			if sinceID > 0 && a.ID <= sinceID {
				pageExhausted = true
				continue
			}
			all = append(all, a)
		}
		if pageExhausted || !hasNext {
			return all
		}
		page++
	}
}

func (c *Client) activitiesPage(ctx context.Context, userID int64, page int) (acts []Activity, hasNext, retry bool, err error) {
	body, err := c.post(ctx, activitiesQuery, map[string]any{"userId": userID, "page": page})
	if err != nil {
		if errors.Is(err, errRateLimited) {
			return nil, false, true, nil
		}
		return nil, false, false, err
	}
	defer body.Close()

	var result struct {
		Data struct {
			Page struct {
				PageInfo struct {
					HasNextPage bool `json:"hasNextPage"`
				} `json:"pageInfo"`
				Activities []struct {
					ID        int64    `json:"id"`
					CreatedAt int64    `json:"createdAt"`
					Progress  Progress `json:"progress"`
					Status    string   `json:"status"`
					Media     *struct {
						ID    int64 `json:"id"`
						Title struct {
							Romaji  *string `json:"romaji"`
							English *string `json:"english"`
						} `json:"title"`
						Type string `json:"type"`
					} `json:"media"`
				} `json:"activities"`
			} `json:"Page"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, false, false, fmt.Errorf("decoding page %d: %w", page, err)
	}
	if len(result.Errors) > 0 {
		return nil, false, false, fmt.Errorf("GraphQL error on page %d: %s", page, result.Errors[0].Message)
	}

	for _, a := range result.Data.Page.Activities {
		// Non-list activities decode as empty objects; media can be null
		// for deleted entries.
		if a.ID == 0 || a.Media == nil {
			continue
		}
		if a.Media.Type != "MANGA" {
			continue
		}
		acts = append(acts, Activity{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			Status:    a.Status,
			Progress:  a.Progress,
			Media: Media{
				ID: a.Media.ID,
				Title: MediaTitle{
					English: deref(a.Media.Title.English),
					Romaji:  deref(a.Media.Title.Romaji),
				},
				Type: a.Media.Type,
			},
		})
	}
	return acts, result.Data.Page.PageInfo.HasNextPage, false, nil
}

var errRateLimited = errors.New("rate limited")

func (c *Client) post(ctx context.Context, query string, variables map[string]any) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AniList API error: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("AniList API returned %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
